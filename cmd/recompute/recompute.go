package recompute

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"tradepulse/src/database"
	"tradepulse/src/journal"
	"tradepulse/src/repository"
)

// Recompute reruns the stats aggregator outside the request path.
type Recompute struct {
	OwnerUID string
	PulseID  string
	All      bool
}

func (c *Recompute) validate() error {
	switch {
	case c.All && (c.OwnerUID != "" || c.PulseID != ""):
		return errors.New("--all cannot be combined with --owner or --pulse-id")
	case !c.All && c.OwnerUID == "":
		return errors.New("either --all or --owner is required")
	}
	return nil
}

func (c *Recompute) Start() error {
	if err := c.validate(); err != nil {
		return err
	}

	config := GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to main database")
		return err
	}

	filter := journal.RecomputeFilter{PulseID: c.PulseID}
	if c.OwnerUID != "" {
		owner, err := repository.NewUserRepository().FindByUID(ctx, c.OwnerUID)
		if err != nil {
			return err
		}
		if owner == nil {
			return fmt.Errorf("no user with uid %q", c.OwnerUID)
		}
		filter.OwnerID = owner.ID
	}

	svc := journal.NewDefaultService(nil)
	count, err := svc.RecomputeMatching(ctx, filter)

	log := logrus.WithFields(logrus.Fields{
		"cmd":      "recompute",
		"owner":    c.OwnerUID,
		"pulse_id": c.PulseID,
		"written":  count,
	})
	if err != nil {
		log.WithError(err).Error("Recompute finished with failures")
		return err
	}
	log.Info("Recompute finished")

	return nil
}
