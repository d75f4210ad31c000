package assistant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/skphelp/pkg/assistant"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	reply    *schema.Message
	err      error
	received []*schema.Message
	opts     *model.Options
}

func (m *stubModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.received = input
	m.opts = model.GetCommonOptions(nil, opts...)
	return m.reply, m.err
}

func TestAsk_NotConfigured(t *testing.T) {
	svc := assistant.New(nil)
	assert.False(t, svc.Configured())

	answer, err := svc.Ask(context.Background(), "Apa itu RHK?", "")
	require.NoError(t, err)
	assert.Equal(t, assistant.NotConfiguredMessage, answer)
}

func TestAsk_Success(t *testing.T) {
	m := &stubModel{reply: schema.AssistantMessage("RHK adalah Rencana Hasil Kerja.", nil)}
	var observed []error
	svc := assistant.New(m, assistant.WithObserver(func(service string, err error) {
		assert.Equal(t, "assistant", service)
		observed = append(observed, err)
	}))

	answer, err := svc.Ask(context.Background(), "Apa itu RHK?", "Pengguna di node rhk_issue")
	require.NoError(t, err)
	assert.Equal(t, "RHK adalah Rencana Hasil Kerja.", answer)

	require.Len(t, m.received, 2)
	assert.Equal(t, schema.System, m.received[0].Role)
	assert.Contains(t, m.received[0].Content, "SKP Smart Help")
	assert.Contains(t, m.received[0].Content, "Konteks tambahan dari aplikasi: Pengguna di node rhk_issue")
	assert.Equal(t, schema.User, m.received[1].Role)
	assert.Equal(t, "Apa itu RHK?", m.received[1].Content)

	require.NotNil(t, m.opts.Temperature)
	assert.InDelta(t, 0.3, *m.opts.Temperature, 0.0001)
	assert.Equal(t, []error{nil}, observed)
}

func TestAsk_NoContextLeavesPromptClean(t *testing.T) {
	m := &stubModel{reply: schema.AssistantMessage("ok", nil)}
	_, err := assistant.New(m).Ask(context.Background(), "Q", "   ")
	require.NoError(t, err)
	assert.NotContains(t, m.received[0].Content, "Konteks tambahan")
}

func TestAsk_EmptyAnswer(t *testing.T) {
	for _, reply := range []*schema.Message{nil, schema.AssistantMessage("  ", nil)} {
		svc := assistant.New(&stubModel{reply: reply})
		answer, err := svc.Ask(context.Background(), "Q", "")
		require.NoError(t, err)
		assert.Equal(t, assistant.EmptyAnswerMessage, answer)
	}
}

func TestAsk_Failure(t *testing.T) {
	cause := errors.New("connection refused")
	svc := assistant.New(&stubModel{err: cause})

	_, err := svc.Ask(context.Background(), "Q", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.ErrorIs(t, err, cause)

	var uerr *assistant.UnavailableError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, assistant.FailureMessage, uerr.UserMessage())
}
