package service

import (
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"manoya/internal/domain"
)

// Handoff es lo que recibe el cliente al iniciar un pago.
type Handoff struct {
	Reference            string               `json:"reference"`
	Method               domain.PaymentMethod `json:"method"`
	Amount               domain.Amount        `json:"amount"`
	RedirectURL          string               `json:"redirect_url,omitempty"`
	RequiresConfirmation bool                 `json:"requires_confirmation"`

	// Confirm existe solo en adaptadores con confirmacion manual.
	Confirm func() `json:"-"`
}

// PaymentAdapter inicia un pago y llama a onSuccess como mucho una vez.
// Un pago no completado simplemente nunca llama.
type PaymentAdapter interface {
	Method() domain.PaymentMethod
	Begin(amount domain.Amount, onSuccess func()) Handoff
}

const paymentRefAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newPaymentReference() string {
	id, err := gonanoid.Generate(paymentRefAlphabet, 12)
	if err != nil {
		// crypto/rand no falla en la practica
		id = fmt.Sprintf("%012d", time.Now().UnixNano()%1_000_000_000_000)
	}
	return "MY-" + id
}

// SimulatedAdapter aprueba el pago solo despues de un delay fijo.
type SimulatedAdapter struct {
	method domain.PaymentMethod
	delay  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewSimulatedAdapter(method domain.PaymentMethod, delay time.Duration) *SimulatedAdapter {
	if delay < 0 {
		delay = 0
	}
	return &SimulatedAdapter{
		method: method,
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

func (a *SimulatedAdapter) Method() domain.PaymentMethod { return a.method }

func (a *SimulatedAdapter) Begin(amount domain.Amount, onSuccess func()) Handoff {
	ref := newPaymentReference()

	a.mu.Lock()
	a.timers[ref] = time.AfterFunc(a.delay, func() {
		a.mu.Lock()
		_, pending := a.timers[ref]
		delete(a.timers, ref)
		a.mu.Unlock()
		if pending && onSuccess != nil {
			onSuccess()
		}
	})
	a.mu.Unlock()

	return Handoff{Reference: ref, Method: a.method, Amount: amount}
}

// Pending devuelve cuantos pagos siguen esperando el delay.
func (a *SimulatedAdapter) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.timers)
}

// Stop cancela los pagos pendientes; sus callbacks ya no se ejecutan.
func (a *SimulatedAdapter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for ref, t := range a.timers {
		t.Stop()
		delete(a.timers, ref)
	}
}

// RedirectAdapter deriva al checkout externo del comerciante. Como no hay webhook,
// el pago se da por hecho cuando el usuario lo confirma manualmente.
type RedirectAdapter struct {
	method domain.PaymentMethod
	link   string
}

func NewRedirectAdapter(method domain.PaymentMethod, link string) *RedirectAdapter {
	return &RedirectAdapter{method: method, link: link}
}

func (a *RedirectAdapter) Method() domain.PaymentMethod { return a.method }

func (a *RedirectAdapter) Begin(amount domain.Amount, onSuccess func()) Handoff {
	var once sync.Once
	return Handoff{
		Reference:            newPaymentReference(),
		Method:               a.method,
		Amount:               amount,
		RedirectURL:          a.link,
		RequiresConfirmation: true,
		Confirm: func() {
			once.Do(func() {
				if onSuccess != nil {
					onSuccess()
				}
			})
		},
	}
}
