package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
	"go.uber.org/zap"
)

// AuditEvent is an entry to be written under Principal's session context
type AuditEvent struct {
	Principal auth.Principal
	Log       *models.AuditLog
}

// AuditService writes security audit entries in the background so that
// login latency does not depend on the audit insert
type AuditService struct {
	gateway     *tenancy.Gateway
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *AuditEvent
	workerCount int
	bufferSize  int
	timeout     time.Duration
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	mu          sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize   int           // Size of the event buffer channel
	WorkerCount  int           // Number of concurrent workers
	WriteTimeout time.Duration // Per-event database deadline
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:   1000,
		WorkerCount:  2,
		WriteTimeout: 5 * time.Second,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(gateway *tenancy.Gateway, auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &AuditService{
		gateway:     gateway,
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *AuditEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		timeout:     config.WriteTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service
// Waits for all pending events to be processed
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	// Close the event channel (no more events will be accepted)
	close(s.eventChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an event without blocking. A full buffer drops the event.
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return fmt.Errorf("audit service not started")
	}
	if !event.Principal.HasTenant() {
		return fmt.Errorf("audit event has no tenant")
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(event.Log.Action)),
			zap.String("tenant_id", event.Principal.TenantID.String()))
		return fmt.Errorf("audit event buffer full")
	}
}

func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(event.Log.Action)),
				zap.String("tenant_id", event.Principal.TenantID.String()))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent writes one entry on a connection bound to the event's principal
func (s *AuditService) processEvent(event *AuditEvent) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	return s.gateway.Run(ctx, event.Principal, func(ctx context.Context, conn *tenancy.BoundConn) error {
		return s.auditRepo.Create(ctx, conn, event.Log)
	})
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

// LogLoginSucceeded records a successful password login
func (s *AuditService) LogLoginSucceeded(p auth.Principal, requestID string) error {
	log := models.NewAuditLog(models.AuditActionLoginSucceeded, "user_account", p.UserID).WithUser(p.UserID)
	log.RequestID = requestID

	return s.LogEvent(&AuditEvent{Principal: p, Log: log})
}

// LogLoginFailed records a rejected login. It runs under the anonymous
// principal of the tenant the attempt targeted.
func (s *AuditService) LogLoginFailed(tenantID uuid.UUID, email, reason, requestID string) error {
	log, err := models.NewAuditLog(models.AuditActionLoginFailed, "user_account", uuid.Nil).
		WithDetails(map[string]string{
			"email":  models.NormalizeEmail(email),
			"reason": reason,
		})
	if err != nil {
		return err
	}
	log.RequestID = requestID

	return s.LogEvent(&AuditEvent{Principal: auth.Anonymous(tenantID), Log: log})
}
