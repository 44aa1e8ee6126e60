// Package notify carries audit creation outcomes to interested collaborators.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

const (
	auditCreatedLogMessageConstant         = "audit created"
	auditCreationFailedLogMessageConstant  = "audit creation failed"
	auditListInvalidatedLogMessageConstant = "audit list invalidated"
	logFieldAuditIDConstant                = "audit_id"
	logFieldOrganizationIDConstant         = "organization_id"
	logFieldTitleConstant                  = "title"
	logFieldTotalItemsConstant             = "total_items"
)

// AuditHandle identifies a newly created audit for navigation.
type AuditHandle struct {
	AuditID        string `json:"audit_id"`
	OrganizationID string `json:"organization_id"`
	Title          string `json:"title"`
	TotalItems     int    `json:"total_items"`
}

// Notifier receives creation outcomes. Every submission that reaches the store
// ends with AuditListInvalidated, whatever its outcome.
type Notifier interface {
	AuditCreated(handle AuditHandle)
	AuditCreationFailed(failure error)
	AuditListInvalidated()
}

// Noop discards every notification.
type Noop struct{}

// AuditCreated does nothing.
func (Noop) AuditCreated(AuditHandle) {}

// AuditCreationFailed does nothing.
func (Noop) AuditCreationFailed(error) {}

// AuditListInvalidated does nothing.
func (Noop) AuditListInvalidated() {}

// Logging reports notifications through a zap logger.
type Logging struct {
	logger *zap.Logger
}

// NewLogging constructs a Logging notifier.
func NewLogging(logger *zap.Logger) *Logging {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logging{logger: logger}
}

// AuditCreated logs the created audit.
func (notifier *Logging) AuditCreated(handle AuditHandle) {
	notifier.logger.Info(auditCreatedLogMessageConstant,
		zap.String(logFieldAuditIDConstant, handle.AuditID),
		zap.String(logFieldOrganizationIDConstant, handle.OrganizationID),
		zap.String(logFieldTitleConstant, handle.Title),
		zap.Int(logFieldTotalItemsConstant, handle.TotalItems),
	)
}

// AuditCreationFailed logs the failure cause.
func (notifier *Logging) AuditCreationFailed(failure error) {
	notifier.logger.Error(auditCreationFailedLogMessageConstant, zap.Error(failure))
}

// AuditListInvalidated logs the invalidation at debug level.
func (notifier *Logging) AuditListInvalidated() {
	notifier.logger.Debug(auditListInvalidatedLogMessageConstant)
}

// Fanout forwards each notification to every registered notifier in order.
type Fanout struct {
	mutex     sync.RWMutex
	notifiers []Notifier
}

// NewFanout constructs a Fanout over notifiers, skipping nil entries.
func NewFanout(notifiers ...Notifier) *Fanout {
	fanout := &Fanout{}
	for _, notifier := range notifiers {
		fanout.Add(notifier)
	}
	return fanout
}

// Add registers another notifier.
func (fanout *Fanout) Add(notifier Notifier) {
	if notifier == nil {
		return
	}
	fanout.mutex.Lock()
	defer fanout.mutex.Unlock()
	fanout.notifiers = append(fanout.notifiers, notifier)
}

// AuditCreated forwards the handle.
func (fanout *Fanout) AuditCreated(handle AuditHandle) {
	for _, notifier := range fanout.snapshot() {
		notifier.AuditCreated(handle)
	}
}

// AuditCreationFailed forwards the failure.
func (fanout *Fanout) AuditCreationFailed(failure error) {
	for _, notifier := range fanout.snapshot() {
		notifier.AuditCreationFailed(failure)
	}
}

// AuditListInvalidated forwards the invalidation.
func (fanout *Fanout) AuditListInvalidated() {
	for _, notifier := range fanout.snapshot() {
		notifier.AuditListInvalidated()
	}
}

func (fanout *Fanout) snapshot() []Notifier {
	fanout.mutex.RLock()
	defer fanout.mutex.RUnlock()
	return append([]Notifier(nil), fanout.notifiers...)
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mutex         sync.Mutex
	Created       []AuditHandle
	Failures      []error
	Invalidations int
}

// AuditCreated records the handle.
func (recorder *Recorder) AuditCreated(handle AuditHandle) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.Created = append(recorder.Created, handle)
}

// AuditCreationFailed records the failure.
func (recorder *Recorder) AuditCreationFailed(failure error) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.Failures = append(recorder.Failures, failure)
}

// AuditListInvalidated counts the invalidation.
func (recorder *Recorder) AuditListInvalidated() {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.Invalidations++
}
