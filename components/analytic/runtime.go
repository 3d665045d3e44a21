package analytic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// FullscreenState is the embed fullscreen state machine.
type FullscreenState string

const (
	StateNormal              FullscreenState = "normal"
	StateFullscreenRequested FullscreenState = "fullscreen_requested"
	StateFullscreen          FullscreenState = "fullscreen"
)

// Presentation tells how fullscreen is being shown.
type Presentation string

const (
	PresentationNone    Presentation = ""
	PresentationNative  Presentation = "native"
	PresentationOverlay Presentation = "overlay"
)

// Capabilities answers what the client platform can do.
type Capabilities interface {
	NativeFullscreen() bool
	ManualTrigger() bool
}

// UserAgentCapabilities detects platforms that block fullscreen on embedded
// frames. iPhone, iPod and iPad are matched on the user agent and iPadOS
// desktop mode on a MacIntel platform with touch points.
type UserAgentCapabilities struct {
	UserAgent      string
	Platform       string
	MaxTouchPoints int
}

// CapabilitiesFor reads the client hints of a viewer.
func CapabilitiesFor(viewer ViewerContext) UserAgentCapabilities {
	return UserAgentCapabilities{
		UserAgent:      viewer.UserAgent,
		Platform:       viewer.Platform,
		MaxTouchPoints: viewer.Touch,
	}
}

// IOS reports whether the client is an iOS or iPadOS device.
func (c UserAgentCapabilities) IOS() bool {
	ua := strings.ToLower(c.UserAgent)
	if strings.Contains(ua, "iphone") || strings.Contains(ua, "ipod") || strings.Contains(ua, "ipad") {
		return true
	}
	return c.Platform == "MacIntel" && c.MaxTouchPoints > 1
}

func (c UserAgentCapabilities) NativeFullscreen() bool { return !c.IOS() }

func (c UserAgentCapabilities) ManualTrigger() bool { return c.IOS() }

// Host is the environment outside the widget tree. Acquisitions return a
// release func that reverts exactly what they changed.
type Host interface {
	SetBackground(color string) (restore func(), err error)
	LockScroll() (release func(), err error)
	RequestFullscreen(ctx context.Context) error
	ExitFullscreen(ctx context.Context) error
}

// SessionOptions configures a Session.
type SessionOptions struct {
	AnalyticID   string
	Mode         Mode
	ColorScheme  ColorScheme
	Host         Host
	Capabilities Capabilities
	Telemetry    Telemetry
}

// Session owns the host side effects of one mounted widget: the page
// background in embed mode and the scroll lock while fullscreen. Close
// releases everything and is safe to call more than once.
type Session struct {
	host       Host
	caps       Capabilities
	telemetry  Telemetry
	mode       Mode
	scheme     ColorScheme
	analyticID string

	mu           sync.Mutex
	state        FullscreenState
	presentation Presentation
	restoreBG    func()
	releaseLock  func()
	mounted      bool
	closed       bool
	attempt      uint64
	nativeCall   bool
}

// NewSession builds an unmounted session.
func NewSession(opts SessionOptions) *Session {
	host := opts.Host
	if host == nil {
		host = NewDocumentHost(true)
	}
	caps := opts.Capabilities
	if caps == nil {
		caps = UserAgentCapabilities{}
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModePreview
	}
	return &Session{
		host:       host,
		caps:       caps,
		telemetry:  normalizeTelemetry(opts.Telemetry),
		mode:       mode,
		scheme:     opts.ColorScheme,
		analyticID: opts.AnalyticID,
		state:      StateNormal,
	}
}

// Mount acquires the host background when running as an embed.
func (s *Session) Mount(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.mounted {
		return nil
	}
	if s.mode == ModeEmbed {
		restore, err := s.host.SetBackground(HostBackground(s.scheme))
		if err != nil {
			return fmt.Errorf("analytic: set host background: %w", err)
		}
		s.restoreBG = restore
	}
	s.mounted = true
	return nil
}

// State returns the current fullscreen state.
func (s *Session) State() FullscreenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Presentation returns how fullscreen is shown, if at all.
func (s *Session) Presentation() Presentation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presentation
}

// Mode returns the rendering mode of the session.
func (s *Session) Mode() Mode { return s.mode }

// RequestFullscreen handles an explicit user request. It only acts in embed
// mode and from the normal state. When the platform cannot go native the
// session falls back to a full viewport overlay instead of failing.
func (s *Session) RequestFullscreen(ctx context.Context) (FullscreenState, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return StateNormal, ErrClosed
	}
	if s.mode != ModeEmbed || s.state != StateNormal {
		state := s.state
		s.mu.Unlock()
		return state, nil
	}
	s.state = StateFullscreenRequested
	release, err := s.host.LockScroll()
	if err != nil {
		s.state = StateNormal
		s.mu.Unlock()
		return StateNormal, fmt.Errorf("analytic: lock host scroll: %w", err)
	}
	s.releaseLock = release
	s.attempt++
	attempt := s.attempt
	native := s.caps.NativeFullscreen()
	s.nativeCall = native
	s.mu.Unlock()

	var capErr *PlatformCapabilityError
	if native {
		err = s.host.RequestFullscreen(ctx)
	} else {
		err = &PlatformCapabilityError{Capability: "fullscreen", Reason: "platform blocks fullscreen on embedded frames"}
	}

	s.mu.Lock()
	if attempt == s.attempt {
		s.nativeCall = false
	}
	if s.closed || attempt != s.attempt {
		// Closed or exited while the host was busy: undo a late native entry.
		closed, state := s.closed, s.state
		s.mu.Unlock()
		if native && err == nil {
			_ = s.host.ExitFullscreen(context.WithoutCancel(ctx))
		}
		if closed {
			return StateNormal, ErrClosed
		}
		return state, nil
	}
	defer s.mu.Unlock()
	if s.state != StateFullscreenRequested {
		return s.state, nil
	}
	switch {
	case err == nil:
		s.state = StateFullscreen
		s.presentation = PresentationNative
	case errors.As(err, &capErr):
		s.state = StateFullscreen
		s.presentation = PresentationOverlay
		s.telemetry.Record(ctx, EventFullscreenFall, map[string]any{
			"analytic_id": s.analyticID,
			"reason":      capErr.Reason,
		})
	default:
		s.toNormalLocked()
		return StateNormal, fmt.Errorf("analytic: request fullscreen: %w", err)
	}
	s.telemetry.Record(ctx, EventFullscreen, map[string]any{
		"analytic_id":  s.analyticID,
		"presentation": string(s.presentation),
	})
	return s.state, nil
}

// ExitFullscreen returns to normal from any state. Host errors do not keep
// the scroll lock in place.
func (s *Session) ExitFullscreen(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateNormal {
		s.mu.Unlock()
		return nil
	}
	native := s.nativeActiveLocked()
	s.toNormalLocked()
	s.mu.Unlock()
	if native {
		if err := s.host.ExitFullscreen(ctx); err != nil {
			return fmt.Errorf("analytic: exit fullscreen: %w", err)
		}
	}
	return nil
}

// FullscreenChanged applies an external fullscreen change such as a swipe
// gesture or the escape key.
func (s *Session) FullscreenChanged(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if active {
		if s.state == StateFullscreenRequested {
			s.state = StateFullscreen
			s.presentation = PresentationNative
		}
		return
	}
	s.toNormalLocked()
}

// Close releases every acquisition. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	native := s.nativeActiveLocked()
	s.toNormalLocked()
	restore := s.restoreBG
	s.restoreBG = nil
	s.mu.Unlock()
	if native {
		_ = s.host.ExitFullscreen(context.Background())
	}
	if restore != nil {
		restore()
	}
}

// nativeActiveLocked reports whether the host is, or may be about to be, in
// native fullscreen.
func (s *Session) nativeActiveLocked() bool {
	return s.presentation == PresentationNative ||
		(s.state == StateFullscreenRequested && s.nativeCall)
}

// toNormalLocked also invalidates any in-flight request attempt.
func (s *Session) toNormalLocked() {
	s.attempt++
	s.nativeCall = false
	s.state = StateNormal
	s.presentation = PresentationNone
	if s.releaseLock != nil {
		s.releaseLock()
		s.releaseLock = nil
	}
}

// WithSession mounts a session, runs fn and always releases the session,
// including when fn panics.
func WithSession(ctx context.Context, opts SessionOptions, fn func(*Session) error) error {
	session := NewSession(opts)
	defer session.Close()
	if err := session.Mount(ctx); err != nil {
		return err
	}
	return fn(session)
}

// DocumentHost records host directives for server rendered pages: the body
// background, the overflow lock and whether fullscreen is active.
type DocumentHost struct {
	mu               sync.Mutex
	nativeFullscreen bool
	background       string
	overflow         string
	fullscreen       bool
}

// NewDocumentHost builds a host; nativeFullscreen false makes every
// fullscreen request fail with a PlatformCapabilityError.
func NewDocumentHost(nativeFullscreen bool) *DocumentHost {
	return &DocumentHost{nativeFullscreen: nativeFullscreen}
}

func (h *DocumentHost) SetBackground(color string) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	previous := h.background
	h.background = color
	return func() {
		h.mu.Lock()
		h.background = previous
		h.mu.Unlock()
	}, nil
}

func (h *DocumentHost) LockScroll() (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	previous := h.overflow
	h.overflow = "hidden"
	return func() {
		h.mu.Lock()
		h.overflow = previous
		h.mu.Unlock()
	}, nil
}

func (h *DocumentHost) RequestFullscreen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.nativeFullscreen {
		return &PlatformCapabilityError{Capability: "fullscreen", Reason: "host has no native fullscreen"}
	}
	h.fullscreen = true
	return nil
}

func (h *DocumentHost) ExitFullscreen(context.Context) error {
	h.mu.Lock()
	h.fullscreen = false
	h.mu.Unlock()
	return nil
}

// Background returns the current body background, empty when untouched.
func (h *DocumentHost) Background() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.background
}

// Overflow returns the current body overflow, empty when untouched.
func (h *DocumentHost) Overflow() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.overflow
}

// Fullscreen reports whether native fullscreen is active.
func (h *DocumentHost) Fullscreen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fullscreen
}

// BodyStyle renders the directives as an inline style for the body tag.
func (h *DocumentHost) BodyStyle() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var parts []string
	if h.background != "" {
		parts = append(parts, "background-color: "+h.background+";")
	}
	if h.overflow != "" {
		parts = append(parts, "overflow: "+h.overflow+";")
	}
	return strings.Join(parts, " ")
}
