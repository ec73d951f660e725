// Package mocks holds testify mocks of the adapter interfaces, in the
// mockery expecter style.
package mocks

import (
	mock "github.com/stretchr/testify/mock"
	model "taptree.dev/pkg/taptree/internal/model"
)

// MockReportStore is a mock type for the ReportStore type
type MockReportStore struct {
	mock.Mock
}

type MockReportStore_Expecter struct {
	mock *mock.Mock
}

func (_m *MockReportStore) EXPECT() *MockReportStore_Expecter {
	return &MockReportStore_Expecter{mock: &_m.Mock}
}

// SaveReport provides a mock function with given fields: dir, source, ext, content
func (_m *MockReportStore) SaveReport(dir model.Path, source model.Path, ext string, content []byte) (model.Path, error) {
	ret := _m.Called(dir, source, ext, content)

	if len(ret) == 0 {
		panic("no return value specified for SaveReport")
	}

	var r0 model.Path
	var r1 error
	if rf, ok := ret.Get(0).(func(model.Path, model.Path, string, []byte) (model.Path, error)); ok {
		return rf(dir, source, ext, content)
	}
	if rf, ok := ret.Get(0).(func(model.Path, model.Path, string, []byte) model.Path); ok {
		r0 = rf(dir, source, ext, content)
	} else {
		r0 = ret.Get(0).(model.Path)
	}

	if rf, ok := ret.Get(1).(func(model.Path, model.Path, string, []byte) error); ok {
		r1 = rf(dir, source, ext, content)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockReportStore_SaveReport_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'SaveReport'
type MockReportStore_SaveReport_Call struct {
	*mock.Call
}

// SaveReport is a helper method to define mock.On call
//   - dir model.Path
//   - source model.Path
//   - ext string
//   - content []byte
func (_e *MockReportStore_Expecter) SaveReport(dir interface{}, source interface{}, ext interface{}, content interface{}) *MockReportStore_SaveReport_Call {
	return &MockReportStore_SaveReport_Call{Call: _e.mock.On("SaveReport", dir, source, ext, content)}
}

func (_c *MockReportStore_SaveReport_Call) Run(run func(dir model.Path, source model.Path, ext string, content []byte)) *MockReportStore_SaveReport_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(model.Path), args[1].(model.Path), args[2].(string), args[3].([]byte))
	})
	return _c
}

func (_c *MockReportStore_SaveReport_Call) Return(_a0 model.Path, _a1 error) *MockReportStore_SaveReport_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockReportStore_SaveReport_Call) RunAndReturn(run func(model.Path, model.Path, string, []byte) (model.Path, error)) *MockReportStore_SaveReport_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockReportStore creates a new instance of MockReportStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockReportStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockReportStore {
	mock := &MockReportStore{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
