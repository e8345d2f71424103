package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplySuccessKeepsConfirmedValue(t *testing.T) {
	v := NewValue(1)
	got, err := v.Apply(context.Background(), 3, func(ctx context.Context) (int, error) {
		require.Equal(t, 3, v.Get(), "value must be displayed before commit returns")
		return 4, nil
	})
	require.NoError(t, err)
	require.Equal(t, 4, got)
	require.Equal(t, 4, v.Get())
}

func TestApplyFailureRollsBack(t *testing.T) {
	v := NewValue("reader")
	boom := errors.New("forbidden")
	got, err := v.Apply(context.Background(), "admin", func(ctx context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, "reader", got)
	require.Equal(t, "reader", v.Get())
}

func TestApplyFailureDoesNotClobberNewerValue(t *testing.T) {
	v := NewValue(1)
	_, err := v.Apply(context.Background(), 2, func(ctx context.Context) (int, error) {
		v.Set(5)
		return 0, errors.New("rejected")
	})
	require.Error(t, err)
	require.Equal(t, 5, v.Get())
}
