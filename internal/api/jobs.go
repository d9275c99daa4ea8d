package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/RefTax/core/taxtree"
	"github.com/FocuswithJustin/RefTax/internal/diag"
	"github.com/FocuswithJustin/RefTax/internal/formats/newick"
	"github.com/FocuswithJustin/RefTax/internal/formats/phyloxml"
	"github.com/FocuswithJustin/RefTax/internal/logging"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// BuildRequest describes an asynchronous tree build over a stored run.
type BuildRequest struct {
	RunID          string   `json:"run_id"`
	Format         string   `json:"format,omitempty"` // newick (default) or phyloxml
	MinRank        int      `json:"min_rank,omitempty"`
	MaxSeqsPerLeaf int      `json:"max_seqs_per_leaf,omitempty"`
	Include        []string `json:"include,omitempty"`
	Ignore         []string `json:"ignore,omitempty"`
}

// BuildResult is the outcome of a completed build job.
type BuildResult struct {
	RunID     string `json:"run_id"`
	Sequences int    `json:"sequences"`
	Leaves    int    `json:"leaves"`
	Format    string `json:"format"`
	Tree      string `json:"tree"`
}

// Job represents an asynchronous tree build job.
type Job struct {
	ID          string       `json:"id"`
	Status      JobStatus    `json:"status"`
	Progress    int          `json:"progress"` // 0-100
	Result      *BuildResult `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
	CompletedAt string       `json:"completed_at,omitempty"`
	Request     BuildRequest `json:"request"`

	ctx    context.Context    `json:"-"`
	cancel context.CancelFunc `json:"-"`
}

// JobStore tracks build jobs in memory. Jobs are never evicted; the
// store lives as long as the server process.
type JobStore struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

var globalJobStore = NewJobStore()

// Create registers a pending job for req and returns it.
func (s *JobStore) Create(req BuildRequest) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now().UTC().Format(time.RFC3339)
	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Request:   req,
		ctx:       ctx,
		cancel:    cancel,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Get retrieves a job by ID.
func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[id]
	return job, exists
}

// List returns all jobs, newest first.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt != jobs[j].CreatedAt {
			return jobs[i].CreatedAt > jobs[j].CreatedAt
		}
		return jobs[i].ID < jobs[j].ID
	})
	return jobs
}

// terminal reports whether a status ends the job's lifecycle.
func (st JobStatus) terminal() bool {
	switch st {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Update moves a job to status with the given progress, attaching a
// result or error message when provided.
func (s *JobStore) Update(id string, status JobStatus, progress int, result *BuildResult, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	job.Status = status
	job.Progress = progress
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if result != nil {
		job.Result = result
	}
	if errMsg != "" {
		job.Error = errMsg
	}
	if status.terminal() {
		job.CompletedAt = job.UpdatedAt
	}
	return nil
}

// Cancel requests cancellation of a running job. Cancellation is honored
// between build stages; a job already past its last checkpoint completes.
func (s *JobStore) Cancel(id string) error {
	s.mu.Lock()
	job, exists := s.jobs[id]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	job.cancel()
	return s.Update(id, JobStatusCancelled, job.Progress, nil, "cancelled by client")
}

// buildNotifier fans build events out to the log and, when the server is
// running, the WebSocket hub.
func buildNotifier() diag.Notifier {
	if GlobalHub != nil {
		return diag.Multi(diag.Log, GlobalHub)
	}
	return diag.Log
}

// runBuildJob executes one tree build. It is started in its own goroutine
// by the jobs handler.
func runBuildJob(job *Job) {
	notifier := buildNotifier()
	_ = globalJobStore.Update(job.ID, JobStatusRunning, 0, nil, "")

	fail := func(stage string, err error) {
		logging.Error("Build job failed", "job_id", job.ID, "stage", stage, "error", err)
		notifier.Notify(diag.Event{Type: diag.TypeError, Stage: stage, Message: err.Error()})
		_ = globalJobStore.Update(job.ID, JobStatusFailed, job.Progress, nil, err.Error())
	}
	cancelled := func() bool {
		if job.ctx.Err() == nil {
			return false
		}
		_ = globalJobStore.Update(job.ID, JobStatusCancelled, job.Progress, nil, "cancelled by client")
		return true
	}

	run, err := runStore.GetRun(job.ctx, job.Request.RunID)
	if err != nil {
		fail("load_run", err)
		return
	}
	tax, err := runStore.LoadTaxonomy(job.ctx, run.ID)
	if err != nil {
		fail("load_run", err)
		return
	}

	include, err := taxtree.ParseCladeFilters(job.Request.Include)
	if err != nil {
		fail("filters", err)
		return
	}
	ignore, err := taxtree.ParseCladeFilters(job.Request.Ignore)
	if err != nil {
		fail("filters", err)
		return
	}

	total := tax.SeqCount()
	cfg := taxtree.Config{
		MinRank:        job.Request.MinRank,
		MaxSeqsPerLeaf: job.Request.MaxSeqsPerLeaf,
		Include:        include,
		Ignore:         ignore,
		Progress: func(processed, added, skipped int) {
			notifier.Notify(diag.Event{
				Type:      diag.TypeProgress,
				Stage:     "tree_build",
				Processed: processed,
				Added:     added,
				Skipped:   skipped,
			})
			pct := 0
			if total > 0 {
				pct = processed * 100 / total
			}
			_ = globalJobStore.Update(job.ID, JobStatusRunning, pct, nil, "")
		},
	}

	if cancelled() {
		return
	}
	root, accepted, err := taxtree.NewBuilder(tax, cfg).Build()
	if err != nil {
		fail("tree_build", err)
		return
	}
	if cancelled() {
		return
	}

	format := job.Request.Format
	if format == "" {
		format = "newick"
	}
	var data []byte
	switch format {
	case "phyloxml":
		data, err = phyloxml.Marshal(root)
		if err != nil {
			fail("serialize", err)
			return
		}
	default:
		data = newick.Marshal(root)
	}

	notifier.Notify(diag.Event{
		Type:      diag.TypeComplete,
		Stage:     "tree_build",
		Processed: total,
		Added:     len(accepted),
		Skipped:   total - len(accepted),
	})
	_ = globalJobStore.Update(job.ID, JobStatusCompleted, 100, &BuildResult{
		RunID:     run.ID,
		Sequences: total,
		Leaves:    len(accepted),
		Format:    format,
		Tree:      string(data),
	}, "")
}
