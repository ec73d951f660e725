package mocks

import (
	io "io"
	os "os"

	mock "github.com/stretchr/testify/mock"
	model "taptree.dev/pkg/taptree/internal/model"
)

// MockSourceFSAdapter is a mock type for the SourceFSAdapter type
type MockSourceFSAdapter struct {
	mock.Mock
}

type MockSourceFSAdapter_Expecter struct {
	mock *mock.Mock
}

func (_m *MockSourceFSAdapter) EXPECT() *MockSourceFSAdapter_Expecter {
	return &MockSourceFSAdapter_Expecter{mock: &_m.Mock}
}

// Expand provides a mock function with given fields: paths
func (_m *MockSourceFSAdapter) Expand(paths []model.Path) ([]model.Path, error) {
	ret := _m.Called(paths)

	if len(ret) == 0 {
		panic("no return value specified for Expand")
	}

	var r0 []model.Path
	var r1 error
	if rf, ok := ret.Get(0).(func([]model.Path) ([]model.Path, error)); ok {
		return rf(paths)
	}
	if rf, ok := ret.Get(0).(func([]model.Path) []model.Path); ok {
		r0 = rf(paths)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.Path)
		}
	}

	if rf, ok := ret.Get(1).(func([]model.Path) error); ok {
		r1 = rf(paths)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockSourceFSAdapter_Expand_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Expand'
type MockSourceFSAdapter_Expand_Call struct {
	*mock.Call
}

// Expand is a helper method to define mock.On call
//   - paths []model.Path
func (_e *MockSourceFSAdapter_Expecter) Expand(paths interface{}) *MockSourceFSAdapter_Expand_Call {
	return &MockSourceFSAdapter_Expand_Call{Call: _e.mock.On("Expand", paths)}
}

func (_c *MockSourceFSAdapter_Expand_Call) Run(run func(paths []model.Path)) *MockSourceFSAdapter_Expand_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].([]model.Path))
	})
	return _c
}

func (_c *MockSourceFSAdapter_Expand_Call) Return(_a0 []model.Path, _a1 error) *MockSourceFSAdapter_Expand_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockSourceFSAdapter_Expand_Call) RunAndReturn(run func([]model.Path) ([]model.Path, error)) *MockSourceFSAdapter_Expand_Call {
	_c.Call.Return(run)
	return _c
}

// FileInfo provides a mock function with given fields: path
func (_m *MockSourceFSAdapter) FileInfo(path model.Path) (os.FileInfo, error) {
	ret := _m.Called(path)

	if len(ret) == 0 {
		panic("no return value specified for FileInfo")
	}

	var r0 os.FileInfo
	var r1 error
	if rf, ok := ret.Get(0).(func(model.Path) (os.FileInfo, error)); ok {
		return rf(path)
	}
	if rf, ok := ret.Get(0).(func(model.Path) os.FileInfo); ok {
		r0 = rf(path)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(os.FileInfo)
		}
	}

	if rf, ok := ret.Get(1).(func(model.Path) error); ok {
		r1 = rf(path)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockSourceFSAdapter_FileInfo_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'FileInfo'
type MockSourceFSAdapter_FileInfo_Call struct {
	*mock.Call
}

// FileInfo is a helper method to define mock.On call
//   - path model.Path
func (_e *MockSourceFSAdapter_Expecter) FileInfo(path interface{}) *MockSourceFSAdapter_FileInfo_Call {
	return &MockSourceFSAdapter_FileInfo_Call{Call: _e.mock.On("FileInfo", path)}
}

func (_c *MockSourceFSAdapter_FileInfo_Call) Run(run func(path model.Path)) *MockSourceFSAdapter_FileInfo_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(model.Path))
	})
	return _c
}

func (_c *MockSourceFSAdapter_FileInfo_Call) Return(_a0 os.FileInfo, _a1 error) *MockSourceFSAdapter_FileInfo_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockSourceFSAdapter_FileInfo_Call) RunAndReturn(run func(model.Path) (os.FileInfo, error)) *MockSourceFSAdapter_FileInfo_Call {
	_c.Call.Return(run)
	return _c
}

// Open provides a mock function with given fields: path
func (_m *MockSourceFSAdapter) Open(path model.Path) (io.ReadCloser, error) {
	ret := _m.Called(path)

	if len(ret) == 0 {
		panic("no return value specified for Open")
	}

	var r0 io.ReadCloser
	var r1 error
	if rf, ok := ret.Get(0).(func(model.Path) (io.ReadCloser, error)); ok {
		return rf(path)
	}
	if rf, ok := ret.Get(0).(func(model.Path) io.ReadCloser); ok {
		r0 = rf(path)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(io.ReadCloser)
		}
	}

	if rf, ok := ret.Get(1).(func(model.Path) error); ok {
		r1 = rf(path)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockSourceFSAdapter_Open_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Open'
type MockSourceFSAdapter_Open_Call struct {
	*mock.Call
}

// Open is a helper method to define mock.On call
//   - path model.Path
func (_e *MockSourceFSAdapter_Expecter) Open(path interface{}) *MockSourceFSAdapter_Open_Call {
	return &MockSourceFSAdapter_Open_Call{Call: _e.mock.On("Open", path)}
}

func (_c *MockSourceFSAdapter_Open_Call) Run(run func(path model.Path)) *MockSourceFSAdapter_Open_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(model.Path))
	})
	return _c
}

func (_c *MockSourceFSAdapter_Open_Call) Return(_a0 io.ReadCloser, _a1 error) *MockSourceFSAdapter_Open_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockSourceFSAdapter_Open_Call) RunAndReturn(run func(model.Path) (io.ReadCloser, error)) *MockSourceFSAdapter_Open_Call {
	_c.Call.Return(run)
	return _c
}

// ReadFile provides a mock function with given fields: path
func (_m *MockSourceFSAdapter) ReadFile(path model.Path) ([]byte, error) {
	ret := _m.Called(path)

	if len(ret) == 0 {
		panic("no return value specified for ReadFile")
	}

	var r0 []byte
	var r1 error
	if rf, ok := ret.Get(0).(func(model.Path) ([]byte, error)); ok {
		return rf(path)
	}
	if rf, ok := ret.Get(0).(func(model.Path) []byte); ok {
		r0 = rf(path)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]byte)
		}
	}

	if rf, ok := ret.Get(1).(func(model.Path) error); ok {
		r1 = rf(path)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockSourceFSAdapter_ReadFile_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'ReadFile'
type MockSourceFSAdapter_ReadFile_Call struct {
	*mock.Call
}

// ReadFile is a helper method to define mock.On call
//   - path model.Path
func (_e *MockSourceFSAdapter_Expecter) ReadFile(path interface{}) *MockSourceFSAdapter_ReadFile_Call {
	return &MockSourceFSAdapter_ReadFile_Call{Call: _e.mock.On("ReadFile", path)}
}

func (_c *MockSourceFSAdapter_ReadFile_Call) Run(run func(path model.Path)) *MockSourceFSAdapter_ReadFile_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(model.Path))
	})
	return _c
}

func (_c *MockSourceFSAdapter_ReadFile_Call) Return(_a0 []byte, _a1 error) *MockSourceFSAdapter_ReadFile_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockSourceFSAdapter_ReadFile_Call) RunAndReturn(run func(model.Path) ([]byte, error)) *MockSourceFSAdapter_ReadFile_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockSourceFSAdapter creates a new instance of MockSourceFSAdapter. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockSourceFSAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSourceFSAdapter {
	mock := &MockSourceFSAdapter{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
