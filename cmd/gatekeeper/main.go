package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/breaker"
	"main/internal/corroborate"
	"main/internal/gate"
	"main/internal/ledger"
	"main/internal/lock"
	"main/internal/model"
	"main/internal/ops"
	"main/internal/queue"
	"main/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	signalsPath := flag.String("signals", "-", "JSON-lines signal input (- for stdin)")
	drainCount := flag.Int("drain", 0, "Dequeue up to N entries after admitting")
	statusOnly := flag.Bool("status", false, "Print queue status and window stats, then exit")
	clearQueue := flag.Bool("clear", false, "Clear the queue before admitting")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "gatekeeper",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	if err := run(context.Background(), *configPath, *signalsPath, *drainCount, *statusOnly, *clearQueue); err != nil {
		log.Fatalf("gatekeeper: %v", err)
	}
}

func run(ctx context.Context, configPath, signalsPath string, drainCount int, statusOnly, clearQueue bool) error {
	cfg, err := ops.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	st, err := cfg.BuildStore()
	if err != nil {
		return fmt.Errorf("store build failed: %w", err)
	}

	q, err := queue.New(ctx, st, cfg.Queue)
	if err != nil {
		return err
	}
	locker := lock.New(st, cfg.Lock.TTL)
	aggregator := corroborate.New(st, cfg.Corroboration.Providers, cfg.Corroboration.Window)
	g := gate.New(locker, aggregator, q)

	led, closeLedger, err := buildLedger(cfg)
	if err != nil {
		return err
	}
	defer closeLedger()
	brk := breaker.New(st, led, cfg.Breaker)

	if statusOnly {
		return printStatus(ctx, q, aggregator, brk)
	}
	if clearQueue {
		q.Clear(ctx)
	}

	if signalsPath != "" {
		if err := admitSignals(ctx, g, signalsPath); err != nil {
			return err
		}
	}

	for i := 0; i < drainCount; i++ {
		entry, reason := q.Dequeue(ctx)
		if entry == nil {
			logs.Infof("drain stopped: %s", reason)
			break
		}
		logs.Infof("dequeued %s priority=%s waited=%s",
			entry.Subject, entry.Priority, time.Since(entry.EnqueuedAt).Truncate(time.Second))
	}
	return nil
}

func buildLedger(cfg ops.FileConfig) (ledger.Ledger, func(), error) {
	if cfg.Ledger.Database == "" {
		return ledger.NewMemory(), func() {}, nil
	}
	client, err := conn.New(conn.Option{
		Host:     cfg.Ledger.Host,
		Port:     cfg.Ledger.Port,
		User:     cfg.Ledger.User,
		Password: cfg.Ledger.Password,
		Database: cfg.Ledger.Database,
		SSLMode:  cfg.Ledger.SSLMode,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("ledger connect failed: %w", err)
	}
	return ledger.NewPostgres(client.DB()), func() { _ = client.Close() }, nil
}

// admitSignals feeds JSON-line signals through the gate until EOF or
// shutdown.
func admitSignals(ctx context.Context, g *gate.Gate, path string) error {
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	lines := make(chan []byte)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			lines <- line
		}
	}()

	for {
		select {
		case <-sys.Shutdown():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if len(line) == 0 {
				continue
			}
			var sig model.Signal
			if err := json.Unmarshal(line, &sig); err != nil {
				logs.Warnf("skipping malformed signal: %v", err)
				continue
			}
			if sig.ArrivedAt.IsZero() {
				sig.ArrivedAt = time.Now()
			}
			decision := g.Admit(ctx, sig)
			if decision.Action == gate.ActionAllow {
				logs.Infof("admitted %s priority=%s strength=%s providers=%d",
					decision.Subject, decision.Priority,
					decision.Corroboration.Strength, decision.Corroboration.CrossSourceCount)
			} else {
				logs.Infof("refused %s: %s", decision.Subject, decision.Reason)
			}
		}
	}
}

func printStatus(ctx context.Context, q *queue.Queue, aggregator *corroborate.Aggregator, brk *breaker.Breaker) error {
	status := q.Status()
	logs.Infof("queue: %d/%d entries, %d dequeues in window (limit %d), %d processed",
		status.Length, status.Capacity, status.DequeuesInWindow, status.RateLimit, status.ProcessedCount)

	stats, err := aggregator.WindowStats(ctx)
	if err != nil {
		return err
	}
	logs.Infof("corroboration: %d entries, %d subjects, corroborated: %v",
		stats.TotalEntries, stats.DistinctSubjects, stats.CorroboratedSubjects)

	flag, err := brk.Current(ctx)
	if err != nil {
		return err
	}
	if flag == nil {
		logs.Info("safe mode: off")
	} else {
		logs.Infof("safe mode: %s until %s, recovery remaining %d",
			flag.Mode, flag.ExpiresAt.Format(time.RFC3339), flag.RecoveryRemaining)
	}
	return nil
}
