package tlsroots

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a changed keypair is reloaded.
const DefaultDebounce = 500 * time.Millisecond

// Keypair serves a certificate loaded from disk and reloads it when either
// file changes. A failed reload keeps the previous certificate.
type Keypair struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
	debounce time.Duration

	mu   sync.RWMutex
	cert *tls.Certificate

	timerMu sync.Mutex
	timer   *time.Timer
}

// KeypairOption configures a Keypair.
type KeypairOption func(*Keypair)

// WithLogger sets the keypair logger.
func WithLogger(logger *slog.Logger) KeypairOption {
	return func(k *Keypair) {
		k.logger = logger
	}
}

// WithDebounce sets the reload debounce.
func WithDebounce(d time.Duration) KeypairOption {
	return func(k *Keypair) {
		k.debounce = d
	}
}

// NewKeypair loads certFile and keyFile.
func NewKeypair(certFile, keyFile string, opts ...KeypairOption) (*Keypair, error) {
	k := &Keypair{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(k)
	}

	if err := k.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return k, nil
}

// Reload reads the keypair from disk.
func (k *Keypair) Reload() error {
	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	k.mu.Lock()
	k.cert = &cert
	k.mu.Unlock()
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (k *Keypair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cert, nil
}

// ServerConfig returns a server TLS config backed by the keypair.
func (k *Keypair) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: k.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// Run watches the keypair files until ctx is done.
func (k *Keypair) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer watcher.Close()

	certAbs, err := filepath.Abs(k.certFile)
	if err != nil {
		return err
	}
	keyAbs, err := filepath.Abs(k.keyFile)
	if err != nil {
		return err
	}

	// Directories are watched so that editors and cert-manager style
	// atomic renames are seen.
	dirs := map[string]struct{}{filepath.Dir(certAbs): {}, filepath.Dir(keyAbs): {}}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}

	k.logger.Info("certificate watcher started", "cert_file", k.certFile, "key_file", k.keyFile)
	defer k.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != certAbs && event.Name != keyAbs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			k.logger.Debug("certificate file changed", "file", event.Name, "op", event.Op.String())
			k.schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			k.logger.Error("certificate watcher error", "error", err)
		}
	}
}

func (k *Keypair) schedule() {
	k.timerMu.Lock()
	defer k.timerMu.Unlock()
	if k.timer != nil {
		k.timer.Stop()
	}
	k.timer = time.AfterFunc(k.debounce, func() {
		if err := k.Reload(); err != nil {
			k.logger.Error("certificate reload failed, keeping previous", "error", err, "cert_file", k.certFile)
			return
		}
		k.logger.Info("certificate reloaded", "cert_file", k.certFile)
	})
}

func (k *Keypair) cancelPending() {
	k.timerMu.Lock()
	defer k.timerMu.Unlock()
	if k.timer != nil {
		k.timer.Stop()
	}
}
