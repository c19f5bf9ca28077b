package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"tradepulse/cmd/recompute"
	"tradepulse/src/database"
	"tradepulse/src/security"
	"tradepulse/src/utils"
)

var Version string

func main() {
	_ = godotenv.Load()
	utils.SetupLogger()

	app := cli.NewApp()
	app.Name = "tradepulse"
	app.Usage = "The tradepulse maintenance command line interface"
	app.Version = Version

	app.Commands = []cli.Command{
		migrateCMD,
		recomputeCMD,
		hashSetupKeyCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	migrateCMD = cli.Command{
		Name:        "migrate",
		Usage:       "run schema and data migrations",
		Action:      migrateAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Connects to DATABASE_URL_MAIN, migrates the schema and runs pending data migrations`,
	}
	recomputeCMD = cli.Command{
		Name:      "recompute",
		Usage:     "recompute pulse statistics",
		Action:    recomputeAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "owner", Usage: "identity uid of the pulse owner"},
			cli.StringFlag{Name: "pulse-id", Usage: "business id of a single pulse (requires --owner)"},
			cli.BoolFlag{Name: "all", Usage: "recompute every pulse"},
		},
		Description: `Reruns the aggregator over stored trades and writes stats, status and violations back`,
	}
	hashSetupKeyCMD = cli.Command{
		Name:        "hash-setup-key",
		Usage:       "print a bcrypt hash for ADMIN_SETUP_KEY",
		Action:      hashSetupKeyAction,
		ArgsUsage:   "<plain key>",
		Flags:       []cli.Flag{},
		Description: `Hashes the given key so the plain value never has to live in the server environment`,
	}
)

func migrateAction(_ *cli.Context) error {
	logrus.WithField("cmd", "migrate").Info("Starting migrate CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Migration failed")
		return err
	}

	return nil
}

func recomputeAction(c *cli.Context) error {
	logrus.WithField("cmd", "recompute").Info("Starting recompute CMD")

	cmd := &recompute.Recompute{
		OwnerUID: c.String("owner"),
		PulseID:  c.String("pulse-id"),
		All:      c.Bool("all"),
	}
	if err := cmd.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func hashSetupKeyAction(c *cli.Context) error {
	plain := c.Args().First()
	if plain == "" {
		return errors.New("usage: hash-setup-key <plain key>")
	}

	hash, err := security.HashSetupKey(plain)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
