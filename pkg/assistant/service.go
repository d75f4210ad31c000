// Package assistant answers free-form SKP questions with a chat model.
package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aretw0/skphelp/internal/logging"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// User-facing messages.
const (
	NotConfiguredMessage = "Maaf, kunci API belum dikonfigurasi. Hubungi administrator."
	EmptyAnswerMessage   = "Maaf, saya tidak dapat menghasilkan jawaban saat ini."
	FailureMessage       = "Terjadi kesalahan saat menghubungi layanan AI. Silakan coba lagi nanti."
)

// Temperature keeps answers factual.
const Temperature float32 = 0.3

const systemPrompt = `Anda adalah Asisten Cerdas bernama "SKP Smart Help".
Tugas Anda adalah membantu ASN (Aparatur Sipil Negara) di Indonesia mengenai masalah Sasaran Kinerja Pegawai (SKP) dan aplikasi E-Kinerja BKN.

Gunakan bahasa Indonesia yang formal, sopan, namun mudah dipahami.

Pengetahuan dasar:
1. Regulasi utama: PermenPANRB No. 6 Tahun 2022 tentang Pengelolaan Kinerja.
2. Aplikasi: E-Kinerja BKN.
3. Masalah umum: Login, SKP Atasan, Matriks Peran Hasil, Bukti Dukung.

Jika pertanyaan tidak berhubungan dengan SKP atau kepegawaian, tolak dengan sopan.
Jika pertanyaan membutuhkan penanganan teknis mendalam (seperti merubah database), arahkan untuk menghubungi tim teknis/admin instansi.`

// ChatModel is the part of an eino chat model the assistant uses.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// UnavailableError is returned when the model call fails.
// It matches domain.ErrServiceUnavailable.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return "assistant unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool {
	return target == domain.ErrServiceUnavailable
}

// UserMessage is the text shown in place of an answer.
func (e *UnavailableError) UserMessage() string { return FailureMessage }

// Service implements ports.Assistant.
type Service struct {
	model   ChatModel
	logger  *slog.Logger
	observe func(service string, err error)
}

var _ ports.Assistant = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithObserver reports the outcome of every model call, e.g. to metrics.
func WithObserver(fn func(service string, err error)) Option {
	return func(s *Service) {
		s.observe = fn
	}
}

// New creates a Service. A nil model means no provider is configured.
func New(m ChatModel, opts ...Option) *Service {
	s := &Service{
		model:   m,
		logger:  logging.NewNop(),
		observe: func(string, error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether a model is available.
func (s *Service) Configured() bool {
	return s.model != nil
}

// Ask answers question. extraContext, when set, is appended to the system prompt.
// Without a model it answers with NotConfiguredMessage.
func (s *Service) Ask(ctx context.Context, question, extraContext string) (string, error) {
	if s.model == nil {
		return NotConfiguredMessage, nil
	}

	prompt := systemPrompt
	if extraContext = strings.TrimSpace(extraContext); extraContext != "" {
		prompt += "\n\nKonteks tambahan dari aplikasi: " + extraContext
	}
	messages := []*schema.Message{
		schema.SystemMessage(prompt),
		schema.UserMessage(question),
	}

	out, err := s.model.Generate(ctx, messages, model.WithTemperature(Temperature))
	s.observe("assistant", err)
	if err != nil {
		s.logger.Error("assistant call failed", "err", err)
		return "", &UnavailableError{Err: err}
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return EmptyAnswerMessage, nil
	}
	return out.Content, nil
}
