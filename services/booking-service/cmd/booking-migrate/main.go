// Command booking-migrate applies the booking-service schema.
//
//	booking-migrate            apply pending migrations
//	booking-migrate up         same as above
//	booking-migrate force N    mark version N as applied after a failed run
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/migrations"
)

func main() {
	_ = config.LoadDotEnv()
	logger := runtime.NewLogger("booking-migrate")

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		logger.Error("missing configuration", "err", err)
		os.Exit(2)
	}

	if err := run(dbURL, os.Args[1:]); err != nil {
		logger.Error("migration failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migration finished")
}

func run(dbURL string, args []string) error {
	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "up":
		version, err := db.Migrate(dbURL, migrations.FS, migrations.Table)
		if err != nil {
			return err
		}
		fmt.Printf("schema at version %d\n", version)
		return nil
	case "force":
		if len(args) != 2 {
			return fmt.Errorf("usage: booking-migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("version must be an integer: %w", err)
		}
		return db.ForceVersion(dbURL, migrations.FS, migrations.Table, version)
	default:
		return fmt.Errorf("unknown command %q (want up or force)", cmd)
	}
}
