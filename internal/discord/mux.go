package discord

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"ratex/pkg/apperror"
	"ratex/pkg/logger"
)

// Mux маршрутизирует команды по именам и держит реестр ожидающих
// подтверждений для кнопок Confirm/Cancel.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	wrap     Middleware

	confirmTimeout time.Duration

	pendingMu sync.Mutex
	pending   map[string]*pendingConfirm
}

type pendingConfirm struct {
	userID uint64
	ch     chan bool
}

// NewMux создаёт пустой маршрутизатор. Middleware применяется к
// каждому обработчику при регистрации.
func NewMux(wrap Middleware, confirmTimeout time.Duration) *Mux {
	if confirmTimeout <= 0 {
		confirmTimeout = 5 * time.Minute
	}
	return &Mux{
		handlers:       make(map[string]Handler),
		wrap:           wrap,
		confirmTimeout: confirmTimeout,
		pending:        make(map[string]*pendingConfirm),
	}
}

// Handle регистрирует обработчик команды. Имя команды с подкомандой
// разделяется пробелом: "exchange create".
func (m *Mux) Handle(command string, h Handler) {
	if m.wrap != nil {
		h = m.wrap(h)
	}
	m.mu.Lock()
	m.handlers[command] = h
	m.mu.Unlock()
}

// Commands возвращает имена зарегистрированных команд
func (m *Mux) Commands() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.handlers))
	for name := range m.handlers {
		names = append(names, name)
	}
	return names
}

// ConfirmTimeout возвращает таймаут ожидания подтверждения
func (m *Mux) ConfirmTimeout() time.Duration {
	return m.confirmTimeout
}

// Dispatch выполняет обработчик команды и показывает пользователю
// текст ошибки. Пользовательские ошибки отдаются как есть, внутренние
// заворачиваются в общий шаблон.
func (m *Mux) Dispatch(ctx context.Context, req *Request) {
	m.mu.RLock()
	h, ok := m.handlers[req.Command]
	m.mu.RUnlock()

	if !ok {
		logger.Log.Warn("Unknown command", "command", req.Command, "user_id", req.UserID)
		if err := req.Reply(ctx, "Sorry, I don't know that command."); err != nil {
			logger.Log.Error("Failed to reply to unknown command", "error", err)
		}
		return
	}

	err := h(ctx, req)
	if err == nil {
		return
	}

	if replyErr := req.Reply(ctx, apperror.UserMessage(err)); replyErr != nil {
		logger.Log.Error("Failed to deliver error message",
			"command", req.Command,
			"user_id", req.UserID,
			"error", replyErr,
		)
	}
}

// RegisterConfirm регистрирует ожидание нажатия кнопки и возвращает
// nonce для custom_id кнопок и канал с результатом. Канал получает
// true при подтверждении и false при отмене.
func (m *Mux) RegisterConfirm(userID uint64) (string, <-chan bool) {
	nonce := newNonce()
	ch := make(chan bool, 1)

	m.pendingMu.Lock()
	m.pending[nonce] = &pendingConfirm{userID: userID, ch: ch}
	m.pendingMu.Unlock()

	return nonce, ch
}

// CancelConfirm снимает ожидание, когда ответ больше не нужен
func (m *Mux) CancelConfirm(nonce string) {
	m.pendingMu.Lock()
	delete(m.pending, nonce)
	m.pendingMu.Unlock()
}

// ConfirmResolution результат попытки разрешить нажатие кнопки
type ConfirmResolution int

const (
	// ConfirmResolved нажатие принято, канал получил результат
	ConfirmResolved ConfirmResolution = iota
	// ConfirmExpired подтверждение уже не ожидается
	ConfirmExpired
	// ConfirmForeign кнопку нажал не автор команды
	ConfirmForeign
)

// ResolveConfirm обрабатывает нажатие кнопки с custom_id вида
// "confirm:<nonce>" или "cancel:<nonce>". Засчитывается только
// нажатие автора исходной команды.
func (m *Mux) ResolveConfirm(customID string, userID uint64) ConfirmResolution {
	verb, nonce, ok := strings.Cut(customID, ":")
	if !ok || (verb != "confirm" && verb != "cancel") {
		return ConfirmExpired
	}

	m.pendingMu.Lock()
	p, found := m.pending[nonce]
	if !found {
		m.pendingMu.Unlock()
		return ConfirmExpired
	}
	if p.userID != userID {
		m.pendingMu.Unlock()
		return ConfirmForeign
	}
	delete(m.pending, nonce)
	m.pendingMu.Unlock()

	p.ch <- verb == "confirm"
	return ConfirmResolved
}

func newNonce() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// rand.Read из crypto/rand не возвращает ошибок на
		// поддерживаемых платформах
		panic(err)
	}
	return hex.EncodeToString(buf[:])
}
