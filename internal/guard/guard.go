package guard

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/chantierhq/access/internal/audit"
	"github.com/chantierhq/access/internal/authz"
	"github.com/chantierhq/access/internal/observability/logger"
	"github.com/chantierhq/access/internal/observability/metrics"
)

// Sessions is the slice of the session store the guard consumes.
type Sessions interface {
	Rehydrate(ctx context.Context)
	IsAuthenticated() bool
}

// Decision is the outcome of evaluating an intended navigation. Target is
// the requested path when allowed, the redirect destination otherwise.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Target  string `json:"target"`
}

// Allow permits navigation to path.
func Allow(path string) Decision {
	return Decision{Allowed: true, Target: path}
}

// RedirectTo redirects the navigation to path.
func RedirectTo(path string) Decision {
	return Decision{Allowed: false, Target: path}
}

// Config holds the guard's deployment policy.
type Config struct {
	// PublicPaths are reachable without authentication, matched by exact
	// equality. Defaults to {LoginPath}.
	PublicPaths []string

	// LoginPath is where anonymous sessions are sent. Default "/login".
	LoginPath string

	// HomePath is where denied or already-authenticated navigations are
	// sent. Default "/".
	HomePath string

	// Conservative switches the internal-failure fallback from Allow to
	// Redirect(LoginPath). Storage faults should not normally reach the
	// guard (the session store absorbs them); this covers the rest.
	Conservative bool
}

// Guard decides every intended route transition: allow, redirect to login,
// or redirect home. It performs exactly one side effect: triggering session
// rehydration before the first evaluation.
type Guard struct {
	sessions  Sessions
	pages     authz.PageChecker
	auditor   audit.Logger
	cfg       Config
	decisions metric.Int64Counter
}

// New creates a guard. meter may be nil to skip instrumentation.
func New(sessions Sessions, pages authz.PageChecker, auditor audit.Logger, meter *metrics.Meter, cfg Config) *Guard {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/"
	}
	if cfg.PublicPaths == nil {
		cfg.PublicPaths = []string{cfg.LoginPath}
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}

	g := &Guard{
		sessions: sessions,
		pages:    pages,
		auditor:  auditor,
		cfg:      cfg,
	}
	if meter != nil {
		counter, err := meter.CreateCounter("guard_decisions_total", "Navigation guard decisions by outcome")
		if err == nil {
			g.decisions = counter
		}
	}
	return g
}

// Evaluate decides the navigation to target. It never fails: an unexpected
// panic from the underlying storage or evaluator degrades to Allow (or to
// Redirect(login) in conservative mode) with a diagnostic log, so a storage
// fault cannot make the application un-navigable.
func (g *Guard) Evaluate(ctx context.Context, target string) (decision Decision) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "navigation guard failure",
				logger.String("target", target),
				slog.Any("panic", r),
			)
			if g.cfg.Conservative {
				decision = RedirectTo(g.cfg.LoginPath)
			} else {
				decision = Allow(target)
			}
			g.count(ctx, "degraded")
		}
	}()

	g.sessions.Rehydrate(ctx)

	public := g.isPublic(target)
	authenticated := g.sessions.IsAuthenticated()

	switch {
	case public && authenticated:
		// An authenticated user never sees the login screen.
		g.count(ctx, "redirect_home")
		return RedirectTo(g.cfg.HomePath)

	case public:
		g.count(ctx, "allow")
		return Allow(target)

	case !authenticated:
		g.count(ctx, "redirect_login")
		g.auditor.Log(ctx, audit.Event{
			Type:     audit.TypeNavigationRedirect,
			Resource: "navigation",
			Metadata: map[string]any{
				audit.AttrPath:   target,
				audit.AttrTarget: g.cfg.LoginPath,
				audit.AttrReason: "not_authenticated",
			},
		})
		return RedirectTo(g.cfg.LoginPath)

	case !g.pages.CanAccessPage(target):
		g.count(ctx, "redirect_home")
		g.auditor.Log(ctx, audit.Event{
			Type:     audit.TypeAccessDenied,
			Resource: "navigation",
			Metadata: map[string]any{
				audit.AttrPath:   target,
				audit.AttrTarget: g.cfg.HomePath,
			},
		})
		return RedirectTo(g.cfg.HomePath)

	default:
		g.count(ctx, "allow")
		return Allow(target)
	}
}

func (g *Guard) isPublic(path string) bool {
	for _, p := range g.cfg.PublicPaths {
		if path == p {
			return true
		}
	}
	return false
}

func (g *Guard) count(ctx context.Context, outcome string) {
	if g.decisions == nil {
		return
	}
	g.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
