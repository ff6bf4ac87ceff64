// Package lifecycle drives the NOT_STARTED, IN_PROGRESS, ENDED election
// state machine and the two reset flavours.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/urna-api/internal/audit"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/store"
)

// DefaultWindow is how long an election runs when started without a future end time
const DefaultWindow = 8 * time.Hour

var (
	ErrInvalidTransition = errors.New("invalid election transition")
	ErrResultsLocked     = errors.New("results can only be published after the election has ended")
)

// errUnchanged aborts a mutation that would not change anything
var errUnchanged = errors.New("unchanged")

// Controller applies status transitions and their side effects
type Controller struct {
	store    *store.Store
	recorder *audit.Recorder
	window   time.Duration
	log      *log.Logger
}

// NewController creates a controller; a non-positive window falls back to DefaultWindow
func NewController(s *store.Store, recorder *audit.Recorder, window time.Duration) *Controller {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Controller{
		store:    s,
		recorder: recorder,
		window:   window,
		log:      logger.Lifecycle(),
	}
}

func transitionError(from, to election.Status) error {
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
}

// Start moves the active election to IN_PROGRESS. A missing or past end time
// is replaced with now plus the default window; a future one is kept.
func (c *Controller) Start(actor domain.Actor) error {
	return c.store.Mutate(func(d *workspace.Data) error {
		if !d.ElectionStatus.CanTransitionTo(election.StatusInProgress) {
			return transitionError(d.ElectionStatus, election.StatusInProgress)
		}

		now := c.store.Now()
		end, ok := d.ElectionDetails.EndsAt()
		if !ok || !end.After(now) {
			end = now.Add(c.window)
			d.ElectionDetails.EndTime = election.EpochMillis(end)
		}

		entry, err := c.recorder.Entry(actor, domain.ActionElectionStart,
			fmt.Sprintf("Election %q started, voting closes %s", d.ElectionDetails.Name, end.Format(time.RFC3339)))
		if err != nil {
			return err
		}
		d.ElectionStatus = election.StatusInProgress
		d.Record(entry)

		c.log.Info("Election started", "actor", actor.ID, "ends_at", end)
		return nil
	})
}

// End moves the active election to ENDED and clears its end time
func (c *Controller) End(actor domain.Actor) error {
	return c.store.Mutate(func(d *workspace.Data) error {
		return c.end(d, actor, "Election ended")
	})
}

func (c *Controller) end(d *workspace.Data, actor domain.Actor, details string) error {
	if !d.ElectionStatus.CanTransitionTo(election.StatusEnded) {
		return transitionError(d.ElectionStatus, election.StatusEnded)
	}

	entry, err := c.recorder.Entry(actor, domain.ActionElectionEnd, details)
	if err != nil {
		return err
	}
	d.ElectionStatus = election.StatusEnded
	d.ElectionDetails.EndTime = nil
	d.Record(entry)

	c.log.Info("Election ended", "actor", actor.ID)
	return nil
}

// ResetElection wipes the active workspace roster, votes and history. Only the
// admin profile survives, and the journal restarts with the reset marker.
func (c *Controller) ResetElection(actor domain.Actor) error {
	return c.store.Mutate(func(d *workspace.Data) error {
		entry, err := c.recorder.Entry(actor, domain.ActionElectionReset,
			"Election reset: positions, candidates, voters and votes cleared")
		if err != nil {
			return err
		}

		fresh := workspace.DefaultData()
		fresh.AdminProfile = d.AdminProfile
		fresh.AuditLog = []domain.Entry{entry}
		*d = fresh

		c.log.Warn("Election reset", "actor", actor.ID)
		return nil
	})
}

// EnableNewElection starts a new cycle on any workspace. The roster and the
// journal are kept; votes are dropped and every voter may vote again.
func (c *Controller) EnableNewElection(actor domain.Actor, workspaceID string) error {
	var cleared, voters int
	err := c.store.MutateWorkspace(workspaceID, func(d *workspace.Data) error {
		cleared, voters = len(d.Votes), len(d.Voters)

		entry, err := c.recorder.Entry(actor, domain.ActionElectionReset,
			fmt.Sprintf("New election enabled: %d votes cleared, %d voters re-enabled", cleared, voters))
		if err != nil {
			return err
		}

		d.Votes = []election.Vote{}
		for i := range d.Voters {
			d.Voters[i].HasVoted = false
		}
		d.ElectionStatus = election.StatusNotStarted
		d.ElectionDetails.EndTime = nil
		d.ResultsPublished = false
		d.Record(entry)
		return nil
	})
	if err != nil {
		return err
	}

	c.log.Info("New election enabled", "workspace_id", workspaceID, "votes_cleared", cleared, "voters", voters)
	return c.recorder.RecordGlobal(actor, domain.ActionElectionReset, fmt.Sprintf("New election enabled for workspace %s", workspaceID))
}

// SetResultsPublished opens or closes the public results view. Allowed only
// once the election has ended; setting the current value is a no-op.
func (c *Controller) SetResultsPublished(actor domain.Actor, publish bool) error {
	err := c.store.Mutate(func(d *workspace.Data) error {
		if d.ElectionStatus != election.StatusEnded {
			return ErrResultsLocked
		}
		if d.ResultsPublished == publish {
			return errUnchanged
		}

		action := domain.ActionResultsHidden
		if publish {
			action = domain.ActionResultsPublished
		}
		entry, err := c.recorder.Entry(actor, action, "")
		if err != nil {
			return err
		}
		d.ResultsPublished = publish
		d.Record(entry)
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}

// Remaining returns the time left before the active election closes
func (c *Controller) Remaining() (time.Duration, bool, error) {
	data, err := c.store.Working()
	if err != nil {
		return 0, false, err
	}
	if data.ElectionStatus != election.StatusInProgress {
		return 0, false, nil
	}
	end, ok := data.ElectionDetails.EndsAt()
	if !ok {
		return 0, false, nil
	}
	remaining := end.Sub(c.store.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true, nil
}

// EndExpired ends every running election whose end time has passed, in any
// workspace, on behalf of the System actor. It returns the ids it ended.
func (c *Controller) EndExpired() ([]string, error) {
	now := c.store.Now()
	state := c.store.State()

	var ended []string
	var errs []error
	for _, ws := range state.Workspaces {
		data := state.DataFor(ws.ID)
		if !expired(data, now) {
			continue
		}

		err := c.store.MutateWorkspace(ws.ID, func(d *workspace.Data) error {
			if !expired(*d, c.store.Now()) {
				return errUnchanged
			}
			return c.end(d, domain.SystemActor(), "Voting window elapsed")
		})
		switch {
		case err == nil:
			ended = append(ended, ws.ID)
		case errors.Is(err, errUnchanged):
		default:
			errs = append(errs, fmt.Errorf("workspace %s: %w", ws.ID, err))
		}
	}
	return ended, errors.Join(errs...)
}

func expired(d workspace.Data, now time.Time) bool {
	if d.ElectionStatus != election.StatusInProgress {
		return false
	}
	end, ok := d.ElectionDetails.EndsAt()
	return ok && !end.After(now)
}

// RunCountdown calls EndExpired every interval until ctx is done
func (c *Controller) RunCountdown(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.log.Debug("Countdown started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			c.log.Debug("Countdown stopped")
			return
		case <-ticker.C:
			ended, err := c.EndExpired()
			if err != nil {
				c.log.Error("Countdown failed to end election", "error", err)
			}
			for _, id := range ended {
				c.log.Info("Voting window elapsed", "workspace_id", id)
			}
		}
	}
}
