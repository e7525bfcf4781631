// Command pinctl drives a pinlock engine from the command line.
//
//	pinctl [flags] status|setup|skip|login|change|reset [-wipe]|disable|logout|metrics|report
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MrEthical07/pinlock"
	"github.com/MrEthical07/pinlock/metrics/export/prometheus"
	"github.com/MrEthical07/pinlock/store"
	"github.com/MrEthical07/pinlock/store/redisstore"
	"github.com/MrEthical07/pinlock/store/sqlitestore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const usage = "usage: pinctl [flags] status|setup|skip|login|change|reset [-wipe]|disable|logout|metrics|report"

// metricsScopeNote heads the metrics output. The engine counters live in
// memory, so a one-shot command only ever sees its own operations.
const metricsScopeNote = "# pinctl: *_total counters cover this invocation only; " +
	"pinlock_failed_attempts, pinlock_locked and pinlock_lockout_remaining_seconds reflect the stored credential."

type options struct {
	configPath string
	backend    string
	dbPath     string
	redisAddr  string
	prefix     string
	audit      string
	verbose    bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pinctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "TOML config file; PINLOCK_* variables override it")
	fs.StringVar(&opts.backend, "backend", "sqlite", "storage backend: sqlite, redis or memory")
	fs.StringVar(&opts.dbPath, "db", "pinlock.db", "sqlite database path")
	fs.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env is used")
	fs.StringVar(&opts.prefix, "prefix", redisstore.DefaultPrefix, "redis key prefix")
	fs.StringVar(&opts.audit, "audit", "", "audit events to stderr: json (JSON lines) or log (through the logger)")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	for _, w := range cfg.Lint().BySeverity(pinlock.LintWarn) {
		logger.Warn("pinctl: weak configuration", "code", w.Code, "severity", w.Severity.String(), "detail", w.Message)
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	if cmd == "metrics" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.EnableLatencyHistograms = true
	}

	backend, closeBackend, err := openBackend(ctx, opts, logger)
	if err != nil {
		fmt.Fprintf(stderr, "storage: %v\n", err)
		return 1
	}
	defer closeBackend()

	b := pinlock.New().WithConfig(cfg).WithBackend(backend).WithLogger(logger)
	switch opts.audit {
	case "":
	case "json":
		b = b.WithAuditSink(pinlock.NewJSONWriterSink(stderr))
	case "log":
		b = b.WithAuditSink(pinlock.NewSlogSink(logger))
	default:
		fmt.Fprintf(stderr, "unknown audit sink %q\n", opts.audit)
		return 2
	}
	engine, err := b.Build()
	if err != nil {
		fmt.Fprintf(stderr, "engine: %v\n", err)
		return 1
	}
	defer engine.Close()

	c := &cli{
		engine: engine,
		in:     newPrompter(stdin, stderr),
		out:    stdout,
	}
	if err := c.dispatch(ctx, cmd, cmdArgs); err != nil {
		fmt.Fprintln(stderr, userMessage(err))
		logger.Debug("pinctl: command failed", "command", cmd, "error", err)
		return 1
	}
	return 0
}

func openBackend(ctx context.Context, opts options, logger *slog.Logger) (store.Backend, func(), error) {
	switch opts.backend {
	case "sqlite":
		s, err := sqlitestore.Open(ctx, opts.dbPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("pinctl: using sqlite", "path", opts.dbPath)
		return s, func() { _ = s.Close() }, nil

	case "redis":
		addr := opts.redisAddr
		if addr == "" {
			addr = os.Getenv("REDIS_ADDR")
		}
		if addr == "" {
			return nil, nil, errors.New("redis backend needs -redis-addr or REDIS_ADDR")
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		logger.Debug("pinctl: using redis", "addr", addr)
		return redisstore.New(client, opts.prefix), func() { _ = client.Close() }, nil

	case "memory":
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{mr.Addr()},
		})
		logger.Debug("pinctl: using in-process miniredis", "addr", mr.Addr())
		return redisstore.New(client, opts.prefix), func() {
			_ = client.Close()
			mr.Close()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", opts.backend)
	}
}

type cli struct {
	engine *pinlock.Engine
	in     *prompter
	out    io.Writer
}

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "status":
		return c.status(ctx)
	case "setup":
		pinValue, confirm, err := c.in.newPIN()
		if err != nil {
			return err
		}
		if err := c.engine.SetupPIN(ctx, pinValue, confirm); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "PIN set. Session open for", c.engine.SecurityReport().SessionTTL)
		return nil
	case "skip":
		if err := c.engine.SkipSetup(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Continuing without a PIN.")
		return nil
	case "login":
		pinValue, err := c.in.pin("PIN: ")
		if err != nil {
			return err
		}
		if err := c.engine.Login(ctx, pinValue); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Unlocked.")
		return nil
	case "change":
		oldPIN, err := c.in.pin("Current PIN: ")
		if err != nil {
			return err
		}
		newPIN, confirm, err := c.in.newPIN()
		if err != nil {
			return err
		}
		if err := c.engine.ChangePIN(ctx, oldPIN, newPIN, confirm); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "PIN changed.")
		return nil
	case "reset":
		return c.reset(ctx, args)
	case "disable":
		var current string
		setUp, err := c.engine.IsSetUp(ctx)
		if err != nil {
			return err
		}
		if setUp {
			if current, err = c.in.pin("Current PIN: "); err != nil {
				return err
			}
		}
		if err := c.engine.DisablePIN(ctx, current); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "PIN protection disabled.")
		return nil
	case "logout":
		if err := c.engine.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Locked.")
		return nil
	case "metrics":
		if _, err := c.engine.State(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, metricsScopeNote)
		fmt.Fprint(c.out, prometheus.NewPrometheusExporter(c.engine).RenderContext(ctx))
		return nil
	case "report":
		return c.report()
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func (c *cli) status(ctx context.Context) error {
	state, err := c.engine.State(ctx)
	if err != nil {
		return err
	}
	attempts, err := c.engine.FailedAttemptsInfo(ctx)
	if err != nil {
		return err
	}
	lock, err := c.engine.IsLocked(ctx)
	if err != nil {
		return err
	}
	sess, err := c.engine.CurrentSession(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "state: %s\n", state)
	fmt.Fprintf(c.out, "failed attempts: %d/%d\n", attempts.FailedAttempts, attempts.MaxAttempts)
	if lock.Locked {
		fmt.Fprintf(c.out, "locked until: %s\n", lock.UnlockAt.Local().Format("2006-01-02 15:04:05"))
	}
	switch {
	case sess == nil:
		fmt.Fprintln(c.out, "session: none")
	case sess.Expiring:
		fmt.Fprintf(c.out, "session: expires %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	default:
		fmt.Fprintln(c.out, "session: never expires")
	}
	return nil
}

func (c *cli) reset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(c.in.out)
	wipe := fs.Bool("wipe", false, "delete all projects, tasks, time entries and settings")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *wipe {
		answer, err := c.in.line("This deletes all workspace data. Type WIPE to continue: ")
		if err != nil {
			return err
		}
		if answer != "WIPE" {
			return errors.New("reset cancelled")
		}
	}

	newPIN, confirm, err := c.in.newPIN()
	if err != nil {
		return err
	}
	if err := c.engine.ResetPIN(ctx, newPIN, confirm, *wipe); err != nil {
		return err
	}
	if *wipe {
		fmt.Fprintln(c.out, "Workspace wiped. New PIN set.")
	} else {
		fmt.Fprintln(c.out, "New PIN set.")
	}
	return nil
}

func (c *cli) report() error {
	r := c.engine.SecurityReport()
	fmt.Fprintf(c.out, "derivation: %s iterations=%d key=%dB salt=%dB", r.Derivation.Algorithm, r.Derivation.Iterations, r.Derivation.KeyLength, r.Derivation.SaltLength)
	if r.Derivation.Memory > 0 {
		fmt.Fprintf(c.out, " memory=%dKiB parallelism=%d", r.Derivation.Memory, r.Derivation.Parallelism)
	}
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "pins: %d-%d digits (%d combinations)\n", r.PINMinLength, r.PINMaxLength, r.PINSpace)
	fmt.Fprintf(c.out, "lockout: after %d failures, %s doubling to %s\n", r.LockoutThreshold, r.LockoutBase, r.LockoutMax)
	fmt.Fprintf(c.out, "session ttl: %s\n", r.SessionTTL)
	if r.WeakDerivation {
		fmt.Fprintln(c.out, "warning: derivation parameters are weak")
	}
	return nil
}

// userMessage renders err the way the unlock screen shows it.
func userMessage(err error) string {
	var locked *pinlock.LockedError
	var invalid *pinlock.InvalidCredentialError
	var verr *pinlock.ValidationError

	switch {
	case errors.As(err, &locked):
		return fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", locked.Minutes())
	case errors.As(err, &invalid):
		if invalid.AttemptsRemaining == 1 {
			return "Incorrect PIN. 1 attempt remaining."
		}
		return fmt.Sprintf("Incorrect PIN. %d attempts remaining.", invalid.AttemptsRemaining)
	case errors.Is(err, pinlock.ErrPINMismatch):
		return "PINs do not match."
	case errors.As(err, &verr):
		return "Invalid PIN: " + verr.Reason.Error() + "."
	case errors.Is(err, pinlock.ErrIncorrectCredential):
		return "Current PIN is incorrect."
	case errors.Is(err, pinlock.ErrNotConfigured):
		return "No PIN is set. Run 'pinctl setup' or 'pinctl skip'."
	case errors.Is(err, pinlock.ErrAlreadyConfigured):
		return "A PIN is already set. Use 'pinctl change' or 'pinctl reset'."
	case errors.Is(err, pinlock.ErrNotAuthenticated):
		return "Not unlocked. Run 'pinctl login' first."
	case errors.Is(err, pinlock.ErrCorruptCredential):
		return "Stored PIN data is damaged. Run 'pinctl reset' to set a new PIN."
	case errors.Is(err, pinlock.ErrStorageFailure):
		return "Storage unavailable. " + err.Error()
	default:
		return err.Error()
	}
}
