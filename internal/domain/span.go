package domain

import (
	"context"
	"sync"
	"time"
)

type Span struct {
	Name       string    `json:"name"`
	startTs    time.Time `json:"-"`
	subProfile *Profile  `json:"-"`

	SubSpans []*Span `json:"subSpans,omitempty"`
	Elapsed  *int64  `json:"elapsed"`
}

type contextKey string

const ContextProfileKey contextKey = "performanceProfile"

// GetProfile returns the profile stored in ctx, or a throwaway one so
// callers never have to nil check. Only whoever created a profile ends it,
// so the returned func is a no-op for a stored one.
func GetProfile(ctx context.Context) (profile *Profile, endProfile func()) {
	profile, ok := ctx.Value(ContextProfileKey).(*Profile)
	if !ok || profile == nil {
		return NewProfile()
	}
	return profile, func() {}
}

func WithProfile(ctx context.Context, profile *Profile) context.Context {
	return context.WithValue(ctx, ContextProfileKey, profile)
}

// Profile is simply a list of spans
type Profile struct {
	Spans   []*Span `json:"spans"`
	TotalMs *int64  `json:"totalMs"`

	startTs time.Time
	mu      sync.Mutex
}

func NewProfile() (newProfile *Profile, endNewProfile func()) {
	newProfile = &Profile{
		Spans:   []*Span{},
		startTs: time.Now(),
	}
	return newProfile, newProfile.End
}

func (p *Profile) End() {
	t := time.Since(p.startTs).Milliseconds()
	if p.TotalMs == nil {
		p.TotalMs = &t
	}
}

func (p *Profile) StartNewSpan(name string) (*Span, func()) {
	span := &Span{
		Name:    name,
		startTs: time.Now(),
	}
	p.mu.Lock()
	p.Spans = append(p.Spans, span)
	p.mu.Unlock()
	return span, span.End
}

func (s *Span) End() {
	if s.Elapsed == nil {
		t := time.Since(s.startTs).Milliseconds()
		s.Elapsed = &t
	}
	if s.subProfile != nil {
		s.SubSpans = s.subProfile.Spans
	}
}

func (s *Span) NewSubProfile() (*Profile, func()) {
	profile, endProfile := NewProfile()
	s.subProfile = profile
	return profile, endProfile
}
