package identify

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ResendCooldown is how many seconds the user waits before another OTP can be
// requested. Sending and resending both reset it to this value.
const ResendCooldown = 30

var (
	ErrNotPhone         = errors.New("phone identifier is not active")
	ErrAlreadyRequested = errors.New("otp already requested")
	ErrNotRequested     = errors.New("otp not requested yet")
	ErrCooldownActive   = errors.New("resend cooldown still running")
	ErrOTPIncomplete    = errors.New("otp must have 6 digits")
	ErrClosed           = errors.New("login intent closed")
)

// Dispatcher delivers a one-time passcode to a phone number.
type Dispatcher interface {
	Dispatch(ctx context.Context, dialCode, phone string) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, dialCode, phone string) error

func (f DispatcherFunc) Dispatch(ctx context.Context, dialCode, phone string) error {
	return f(ctx, dialCode, phone)
}

// Options configures a new Intent. Zero values are usable: no dispatcher means
// sending only flips the state, and NewTicker defaults to a real ticker.
type Options struct {
	Dispatcher Dispatcher
	NewTicker  TickerFactory
	// Country is the preselected country (alpha-3). Defaults to DefaultCountry.
	Country string
}

type phoneFields struct {
	country      string
	dialCode     string
	number       string
	otpRequested bool
	dispatching  bool
	cooldown     int
	otp          string
}

type emailFields struct {
	email    string
	password string
}

type usernameFields struct {
	username string
}

type countdown struct {
	stop chan struct{}
	done chan struct{}
}

// Intent is the state of one login page: which identifier tab is live, the
// values typed into every tab and the phone OTP sub-flow. It is safe for
// concurrent use; the countdown task mutates it through Tick.
type Intent struct {
	mu sync.Mutex

	active   Identifier
	phone    phoneFields
	email    emailFields
	username usernameFields

	dispatcher Dispatcher
	newTicker  TickerFactory
	countdown  *countdown
	closed     bool

	subs    map[int]chan View
	nextSub int
}

// New returns an intent in its initial state: phone active, no OTP requested,
// cooldown 0, empty code and the default country's dial code.
func New(opts Options) *Intent {
	in := &Intent{
		active:     Phone,
		dispatcher: opts.Dispatcher,
		newTicker:  opts.NewTicker,
		subs:       make(map[int]chan View),
	}
	if in.newTicker == nil {
		in.newTicker = NewTicker
	}
	code := opts.Country
	if code == "" {
		code = DefaultCountry
	}
	c, ok := LookupCountry(code)
	if !ok {
		c, _ = LookupCountry(DefaultCountry)
	}
	in.phone.country = c.Alpha3
	in.phone.dialCode = c.DialCode()
	return in
}

// Active returns the live identifier.
func (in *Intent) Active() Identifier {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.active
}

// Select makes id the live tab. Values typed into the other tabs are kept.
func (in *Intent) Select(id Identifier) error {
	id, err := ParseIdentifier(string(id))
	if err != nil {
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.active == id {
		return nil
	}
	in.active = id
	in.notifyLocked()
	return nil
}

// SendOTP dispatches the first OTP and starts the resend cooldown. A failed
// dispatch leaves the intent untouched.
func (in *Intent) SendOTP(ctx context.Context) error {
	in.mu.Lock()
	switch {
	case in.closed:
		in.mu.Unlock()
		return ErrClosed
	case in.active != Phone:
		in.mu.Unlock()
		return ErrNotPhone
	case in.phone.otpRequested || in.phone.dispatching:
		in.mu.Unlock()
		return ErrAlreadyRequested
	}
	return in.dispatchLocked(ctx)
}

// Resend dispatches a new OTP once the cooldown has run out.
func (in *Intent) Resend(ctx context.Context) error {
	in.mu.Lock()
	switch {
	case in.closed:
		in.mu.Unlock()
		return ErrClosed
	case in.active != Phone:
		in.mu.Unlock()
		return ErrNotPhone
	case !in.phone.otpRequested:
		in.mu.Unlock()
		return ErrNotRequested
	case in.phone.cooldown > 0 || in.phone.dispatching:
		in.mu.Unlock()
		return ErrCooldownActive
	}
	return in.dispatchLocked(ctx)
}

// dispatchLocked is entered with mu held and returns with it released. The
// dispatcher runs without the lock.
func (in *Intent) dispatchLocked(ctx context.Context) error {
	in.phone.dispatching = true
	dialCode, number := in.phone.dialCode, in.phone.number
	d := in.dispatcher
	in.mu.Unlock()

	var err error
	if d != nil {
		err = d.Dispatch(ctx, dialCode, number)
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	in.phone.dispatching = false
	if err != nil {
		return err
	}
	if in.closed {
		return ErrClosed
	}
	in.phone.otpRequested = true
	in.phone.cooldown = ResendCooldown
	in.startCountdownLocked()
	in.notifyLocked()
	return nil
}

// Tick counts the cooldown down by one second and returns what is left. It is
// a no-op unless an OTP was requested and the cooldown is running. Reaching
// zero stops the countdown task.
func (in *Intent) Tick() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.tickLocked()
}

func (in *Intent) tickLocked() int {
	if !in.phone.otpRequested || in.phone.cooldown <= 0 {
		return in.phone.cooldown
	}
	in.phone.cooldown--
	if in.phone.cooldown == 0 {
		in.stopCountdownLocked()
	}
	in.notifyLocked()
	return in.phone.cooldown
}

func (in *Intent) startCountdownLocked() {
	if in.countdown != nil || in.closed {
		return
	}
	cd := &countdown{stop: make(chan struct{}), done: make(chan struct{})}
	in.countdown = cd
	go in.runCountdown(cd, in.newTicker(time.Second))
}

func (in *Intent) runCountdown(cd *countdown, t Ticker) {
	defer close(cd.done)
	defer t.Stop()
	for {
		select {
		case <-cd.stop:
			return
		case <-t.C():
			in.mu.Lock()
			// a stale tick racing with stop must not touch a newer countdown
			if in.countdown == cd {
				in.tickLocked()
			}
			in.mu.Unlock()
		}
	}
}

func (in *Intent) stopCountdownLocked() *countdown {
	cd := in.countdown
	if cd != nil {
		close(cd.stop)
		in.countdown = nil
	}
	return cd
}

// ResetOTP returns the phone sub-flow to idle, e.g. when the number changes.
func (in *Intent) ResetOTP() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.stopCountdownLocked()
	in.phone.otpRequested = false
	in.phone.cooldown = 0
	in.phone.otp = ""
	in.notifyLocked()
}

// EditOTP stores the digits of s, at most OTPLength of them.
func (in *Intent) EditOTP(s string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.phone.otp = FilterOTP(s)
	in.notifyLocked()
}

// SelectCountry takes the first calling code of c as the dial code. A country
// without calling codes leaves the dial code as it was. The pick is ignored
// unless the phone tab is active.
func (in *Intent) SelectCountry(c Country) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.active != Phone {
		return
	}
	if c.Alpha3 != "" {
		in.phone.country = c.Alpha3
	}
	if code := c.DialCode(); code != "" {
		in.phone.dialCode = code
	}
	in.notifyLocked()
}

func (in *Intent) SetDialCode(s string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.phone.dialCode = strings.TrimSpace(s)
	in.notifyLocked()
}

func (in *Intent) SetPhone(s string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.phone.number = strings.TrimSpace(s)
	in.notifyLocked()
}

func (in *Intent) SetEmail(s string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.email.email = strings.TrimSpace(s)
	in.notifyLocked()
}

func (in *Intent) SetPassword(s string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.email.password = s
}

func (in *Intent) SetUsername(s string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.username.username = strings.TrimSpace(s)
	in.notifyLocked()
}

// Apply copies the field values present in a posted form into the intent.
// Browsers do not post disabled inputs, so only the live tab's fields arrive.
// An empty password is ignored because the page never renders it back.
// A posted country is applied only when it differs from the current one.
func (in *Intent) Apply(form url.Values) {
	if v, ok := formValue(form, FieldDialCode); ok {
		in.SetDialCode(v)
	}
	// a newly picked country wins over the dial code posted alongside it
	if code, ok := formValue(form, FieldCountry); ok {
		if c, found := LookupCountry(code); found && c.Alpha3 != in.Snapshot().Country {
			in.SelectCountry(c)
		}
	}
	if v, ok := formValue(form, FieldPhone); ok {
		in.SetPhone(v)
	}
	if v, ok := formValue(form, FieldOTP); ok {
		in.EditOTP(v)
	}
	if v, ok := formValue(form, FieldEmail); ok {
		in.SetEmail(v)
	}
	if v, ok := formValue(form, FieldPassword); ok && v != "" {
		in.SetPassword(v)
	}
	if v, ok := formValue(form, FieldUsername); ok {
		in.SetUsername(v)
	}
}

func formValue(form url.Values, key string) (string, bool) {
	vs, ok := form[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Submission returns the active variant with its field values. The phone
// variant requires a complete code.
func (in *Intent) Submission() (Submission, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	switch in.active {
	case Email:
		return EmailSubmission{Email: in.email.email, Password: in.email.password}, nil
	case Username:
		return UsernameSubmission{Username: in.username.username}, nil
	default:
		if !IsCompleteOTP(in.phone.otp) {
			return nil, ErrOTPIncomplete
		}
		return PhoneSubmission{DialCode: in.phone.dialCode, Phone: in.phone.number, OTP: in.phone.otp}, nil
	}
}

// Snapshot returns the current view.
func (in *Intent) Snapshot() View {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.viewLocked()
}

func (in *Intent) viewLocked() View {
	enabled := make(map[Identifier]bool, len(Identifiers))
	for _, id := range Identifiers {
		enabled[id] = id == in.active
	}
	return View{
		ActiveIdentifier:      in.active,
		OTPRequested:          in.phone.otpRequested,
		ResendCooldownSeconds: in.phone.cooldown,
		OTPCode:               in.phone.otp,
		Country:               in.phone.country,
		DialCode:              in.phone.dialCode,
		Phone:                 in.phone.number,
		Email:                 in.email.email,
		Username:              in.username.username,
		ShowSendOTP:           !in.phone.otpRequested,
		CanResend:             in.phone.otpRequested && in.phone.cooldown == 0,
		CanVerify:             IsCompleteOTP(in.phone.otp),
		Enabled:               enabled,
	}
}

// Subscribe returns a channel that always holds the latest view. The current
// view is delivered immediately. The channel is closed by cancel or Close.
func (in *Intent) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		close(ch)
		return ch, func() {}
	}
	id := in.nextSub
	in.nextSub++
	in.subs[id] = ch
	ch <- in.viewLocked()
	return ch, func() {
		in.mu.Lock()
		defer in.mu.Unlock()
		if c, ok := in.subs[id]; ok {
			delete(in.subs, id)
			close(c)
		}
	}
}

func (in *Intent) notifyLocked() {
	if len(in.subs) == 0 {
		return
	}
	v := in.viewLocked()
	for _, ch := range in.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Close tears the intent down: the countdown task is stopped and waited for
// and subscribers are released. It is safe to call more than once.
func (in *Intent) Close() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.closed = true
	cd := in.stopCountdownLocked()
	for id, ch := range in.subs {
		delete(in.subs, id)
		close(ch)
	}
	in.mu.Unlock()
	if cd != nil {
		<-cd.done
	}
}

// Closed reports whether Close was called.
func (in *Intent) Closed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.closed
}
