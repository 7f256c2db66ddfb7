package discord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratex/pkg/apperror"
)

func TestMux_DispatchKnownCommand(t *testing.T) {
	mux := NewMux(nil, time.Minute)

	var got *Request
	mux.Handle("help", func(ctx context.Context, req *Request) error {
		got = req
		return nil
	})

	req := testRequest("help", 5)
	mux.Dispatch(context.Background(), req)

	require.NotNil(t, got)
	assert.Equal(t, req, got)
	assert.Empty(t, req.Responder.(*FakeResponder).Replies)
}

func TestMux_DispatchUnknownCommand(t *testing.T) {
	mux := NewMux(nil, time.Minute)

	req := testRequest("unknown", 5)
	mux.Dispatch(context.Background(), req)

	resp := req.Responder.(*FakeResponder)
	require.Len(t, resp.Replies, 1)
	assert.Equal(t, "Sorry, I don't know that command.", resp.Replies[0].Content)
}

func TestMux_DispatchUserError(t *testing.T) {
	mux := NewMux(nil, time.Minute)
	mux.Handle("revoke", func(ctx context.Context, req *Request) error {
		return apperror.NewUser(apperror.CodeNotSubmitted, "You have no submission in this exchange.")
	})

	req := testRequest("revoke", 5)
	mux.Dispatch(context.Background(), req)

	resp := req.Responder.(*FakeResponder)
	require.Len(t, resp.Replies, 1)
	assert.Equal(t, "You have no submission in this exchange.", resp.Replies[0].Content)
}

func TestMux_DispatchInternalError(t *testing.T) {
	mux := NewMux(nil, time.Minute)
	mux.Handle("submit", func(ctx context.Context, req *Request) error {
		return errors.New("connection refused")
	})

	req := testRequest("submit", 5)
	mux.Dispatch(context.Background(), req)

	resp := req.Responder.(*FakeResponder)
	require.Len(t, resp.Replies, 1)
	assert.Equal(t,
		"Sorry, there was an internal error while executing your command: connection refused",
		resp.Replies[0].Content)
}

func TestMux_HandleAppliesMiddleware(t *testing.T) {
	var order []string
	wrap := func(next Handler) Handler {
		return func(ctx context.Context, req *Request) error {
			order = append(order, "middleware")
			return next(ctx, req)
		}
	}

	mux := NewMux(wrap, time.Minute)
	mux.Handle("help", func(ctx context.Context, req *Request) error {
		order = append(order, "handler")
		return nil
	})

	mux.Dispatch(context.Background(), testRequest("help", 5))

	assert.Equal(t, []string{"middleware", "handler"}, order)
}

func TestMux_ResolveConfirm(t *testing.T) {
	mux := NewMux(nil, time.Minute)

	nonce, ch := mux.RegisterConfirm(42)

	res := mux.ResolveConfirm("confirm:"+nonce, 42)
	assert.Equal(t, ConfirmResolved, res)

	select {
	case accepted := <-ch:
		assert.True(t, accepted)
	default:
		t.Fatal("confirmation channel is empty")
	}

	// Повторное нажатие уже не ожидается
	assert.Equal(t, ConfirmExpired, mux.ResolveConfirm("confirm:"+nonce, 42))
}

func TestMux_ResolveCancel(t *testing.T) {
	mux := NewMux(nil, time.Minute)

	nonce, ch := mux.RegisterConfirm(42)

	assert.Equal(t, ConfirmResolved, mux.ResolveConfirm("cancel:"+nonce, 42))

	select {
	case accepted := <-ch:
		assert.False(t, accepted)
	default:
		t.Fatal("confirmation channel is empty")
	}
}

func TestMux_ResolveConfirm_ForeignUser(t *testing.T) {
	mux := NewMux(nil, time.Minute)

	nonce, ch := mux.RegisterConfirm(42)

	assert.Equal(t, ConfirmForeign, mux.ResolveConfirm("confirm:"+nonce, 99))

	// Ожидание автора остаётся активным
	assert.Equal(t, ConfirmResolved, mux.ResolveConfirm("confirm:"+nonce, 42))
	assert.True(t, <-ch)
}

func TestMux_ResolveConfirm_UnknownNonce(t *testing.T) {
	mux := NewMux(nil, time.Minute)

	assert.Equal(t, ConfirmExpired, mux.ResolveConfirm("confirm:deadbeef", 42))
	assert.Equal(t, ConfirmExpired, mux.ResolveConfirm("garbage", 42))
}

func TestMux_CancelConfirm(t *testing.T) {
	mux := NewMux(nil, time.Minute)

	nonce, _ := mux.RegisterConfirm(42)
	mux.CancelConfirm(nonce)

	assert.Equal(t, ConfirmExpired, mux.ResolveConfirm("confirm:"+nonce, 42))
}

func TestMux_ConfirmTimeoutDefault(t *testing.T) {
	mux := NewMux(nil, 0)
	assert.Equal(t, 5*time.Minute, mux.ConfirmTimeout())
}
