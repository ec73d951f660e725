// Package mocks holds a testify mock of the controller UI, in the mockery
// expecter style.
package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
	model "taptree.dev/pkg/taptree/internal/model"
)

// MockUI is a mock type for the UI type
type MockUI struct {
	mock.Mock
}

type MockUI_Expecter struct {
	mock *mock.Mock
}

func (_m *MockUI) EXPECT() *MockUI_Expecter {
	return &MockUI_Expecter{mock: &_m.Mock}
}

// DisplayEvents provides a mock function with given fields: ctx, name, events
func (_m *MockUI) DisplayEvents(ctx context.Context, name model.Path, events []model.Event) error {
	ret := _m.Called(ctx, name, events)

	if len(ret) == 0 {
		panic("no return value specified for DisplayEvents")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.Path, []model.Event) error); ok {
		r0 = rf(ctx, name, events)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockUI_DisplayEvents_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'DisplayEvents'
type MockUI_DisplayEvents_Call struct {
	*mock.Call
}

// DisplayEvents is a helper method to define mock.On call
//   - ctx context.Context
//   - name model.Path
//   - events []model.Event
func (_e *MockUI_Expecter) DisplayEvents(ctx interface{}, name interface{}, events interface{}) *MockUI_DisplayEvents_Call {
	return &MockUI_DisplayEvents_Call{Call: _e.mock.On("DisplayEvents", ctx, name, events)}
}

func (_c *MockUI_DisplayEvents_Call) Run(run func(ctx context.Context, name model.Path, events []model.Event)) *MockUI_DisplayEvents_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(model.Path), args[2].([]model.Event))
	})
	return _c
}

func (_c *MockUI_DisplayEvents_Call) Return(_a0 error) *MockUI_DisplayEvents_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockUI_DisplayEvents_Call) RunAndReturn(run func(context.Context, model.Path, []model.Event) error) *MockUI_DisplayEvents_Call {
	_c.Call.Return(run)
	return _c
}

// DisplaySummary provides a mock function with given fields: ctx, summaries
func (_m *MockUI) DisplaySummary(ctx context.Context, summaries []model.Summary) error {
	ret := _m.Called(ctx, summaries)

	if len(ret) == 0 {
		panic("no return value specified for DisplaySummary")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, []model.Summary) error); ok {
		r0 = rf(ctx, summaries)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockUI_DisplaySummary_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'DisplaySummary'
type MockUI_DisplaySummary_Call struct {
	*mock.Call
}

// DisplaySummary is a helper method to define mock.On call
//   - ctx context.Context
//   - summaries []model.Summary
func (_e *MockUI_Expecter) DisplaySummary(ctx interface{}, summaries interface{}) *MockUI_DisplaySummary_Call {
	return &MockUI_DisplaySummary_Call{Call: _e.mock.On("DisplaySummary", ctx, summaries)}
}

func (_c *MockUI_DisplaySummary_Call) Run(run func(ctx context.Context, summaries []model.Summary)) *MockUI_DisplaySummary_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].([]model.Summary))
	})
	return _c
}

func (_c *MockUI_DisplaySummary_Call) Return(_a0 error) *MockUI_DisplaySummary_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockUI_DisplaySummary_Call) RunAndReturn(run func(context.Context, []model.Summary) error) *MockUI_DisplaySummary_Call {
	_c.Call.Return(run)
	return _c
}

// DisplayText provides a mock function with given fields: ctx, name, text
func (_m *MockUI) DisplayText(ctx context.Context, name model.Path, text string) error {
	ret := _m.Called(ctx, name, text)

	if len(ret) == 0 {
		panic("no return value specified for DisplayText")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.Path, string) error); ok {
		r0 = rf(ctx, name, text)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockUI_DisplayText_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'DisplayText'
type MockUI_DisplayText_Call struct {
	*mock.Call
}

// DisplayText is a helper method to define mock.On call
//   - ctx context.Context
//   - name model.Path
//   - text string
func (_e *MockUI_Expecter) DisplayText(ctx interface{}, name interface{}, text interface{}) *MockUI_DisplayText_Call {
	return &MockUI_DisplayText_Call{Call: _e.mock.On("DisplayText", ctx, name, text)}
}

func (_c *MockUI_DisplayText_Call) Run(run func(ctx context.Context, name model.Path, text string)) *MockUI_DisplayText_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(model.Path), args[2].(string))
	})
	return _c
}

func (_c *MockUI_DisplayText_Call) Return(_a0 error) *MockUI_DisplayText_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockUI_DisplayText_Call) RunAndReturn(run func(context.Context, model.Path, string) error) *MockUI_DisplayText_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockUI creates a new instance of MockUI. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	mock := &MockUI{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
