package errors_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorfKeepsWrappedError(t *testing.T) {
	t.Parallel()

	err := errors.Errorf("running task: %w", context.Canceled)

	require.Error(t, err)
	assert.True(t, errors.IsContextCanceled(err))
	assert.True(t, errors.ContainsStackTrace(err))
	assert.NotEmpty(t, errors.ErrorStack(err))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err          error
		expectedCode int
		expectedErr  bool
	}{
		{
			err:          errors.ErrorWithExitCode{Err: fmt.Errorf("boom"), ExitCode: 1},
			expectedCode: 1,
		},
		{
			err:          fmt.Errorf("wrapped: %w", errors.ErrorWithExitCode{Err: fmt.Errorf("boom"), ExitCode: 3}),
			expectedCode: 3,
		},
		{
			err:         fmt.Errorf("plain"),
			expectedErr: true,
		},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("testCase-%d", i), func(t *testing.T) {
			t.Parallel()

			code, err := errors.ExitCode(tc.err)
			if tc.expectedErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedCode, code)
		})
	}
}

func TestMultiError(t *testing.T) {
	t.Parallel()

	var errs *errors.MultiError

	require.NoError(t, errs.ErrorOrNil())

	errs = errs.Append(fmt.Errorf("first"), fmt.Errorf("second"))

	require.Error(t, errs.ErrorOrNil())
	assert.Equal(t, 2, errs.Len())
	assert.Contains(t, errs.Error(), "2 errors occurred")
	assert.Contains(t, errs.Error(), "* first")
}

func TestRecover(t *testing.T) {
	t.Parallel()

	var recovered error

	func() {
		defer errors.Recover(func(cause error) {
			recovered = cause
		})

		panic("task exploded")
	}()

	require.Error(t, recovered)
	assert.Contains(t, recovered.Error(), "task exploded")
}

func TestNewKeepsExistingStackTrace(t *testing.T) {
	t.Parallel()

	plain := fmt.Errorf("disk full")
	assert.False(t, errors.ContainsStackTrace(plain))

	traced := errors.New(plain)
	assert.True(t, errors.ContainsStackTrace(traced))

	wrapped := fmt.Errorf("writing snapshot: %w", traced)
	assert.Same(t, traced, errors.Unwrap(errors.New(wrapped)))
	assert.Equal(t, errors.ErrorStack(traced), errors.ErrorStack(errors.New(wrapped)))
}

func TestUnwrapMultiErrors(t *testing.T) {
	t.Parallel()

	var (
		first  = fmt.Errorf("first")
		second = fmt.Errorf("second")
		third  = fmt.Errorf("third")
	)

	inner := (&errors.MultiError{}).Append(second, third)
	outer := (&errors.MultiError{}).Append(first, fmt.Errorf("nested: %w", inner))

	assert.Equal(t, []error{first, second, third}, errors.UnwrapMultiErrors(outer))
	assert.Equal(t, []error{first}, errors.UnwrapMultiErrors(first))
	assert.False(t, errors.ContainsStackTrace(outer))
	assert.True(t, errors.ContainsStackTrace(outer.Append(errors.New(third))))
}
