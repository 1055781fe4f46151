package reconcile

import "github.com/MoAlyousef/dpm/internal/backend"

// BackendResult is the outcome for one backend within a run: every command
// rendered for it, whether those commands were actually executed (false on
// dry runs and for backends never reached), and the failure if one occurred.
type BackendResult struct {
	Backend  string
	Commands []backend.Command
	Executed bool
	Skipped  string
	Err      error
}

// Report describes one switch, rollback, or update/upgrade run.
type Report struct {
	DryRun   bool
	Backends []BackendResult

	// CommittedSequence is the sequence number of the generation recorded on
	// success, 0 when nothing was committed (dry run, no-op, or failure).
	CommittedSequence int64

	// NoOp is set when the desired state already matched the previous
	// generation and nothing needed to run.
	NoOp bool

	// HistoryDrift is set when commands executed successfully but the
	// generation commit failed afterwards: the system state changed while
	// history did not record it. The user must reconcile manually, usually
	// by re-running switch once the store is writable again.
	HistoryDrift bool
}

// Failed returns the first failing backend result, or nil.
func (r *Report) Failed() *BackendResult {
	for i := range r.Backends {
		if r.Backends[i].Err != nil {
			return &r.Backends[i]
		}
	}
	return nil
}

// CommandCount returns the total number of rendered commands.
func (r *Report) CommandCount() int {
	n := 0
	for _, b := range r.Backends {
		n += len(b.Commands)
	}
	return n
}
