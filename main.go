package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cdbtools/nbt2cdb/cdb"
)

func main() {
	app := &cli.App{
		Name:  "nbt2cdb",
		Usage: "inserts NBT structures into CDB world databases",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database",
				Aliases:  []string{"d"},
				Usage:    "path to the CDB database file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "structure",
				Aliases:  []string{"s"},
				Usage:    "path to the NBT structure file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "mapping",
				Aliases:  []string{"m"},
				Usage:    "path to the blocks.json id mapping",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "x",
				Usage: "start chunk X (defaults to the database's first chunk)",
			},
			&cli.IntFlag{
				Name:  "z",
				Usage: "start chunk Z (defaults to the database's first chunk)",
			},
			&cli.IntFlag{
				Name:     "slot",
				Usage:    "starting slot number for index entries",
				Required: true,
			},
		},
		Action: insertAction,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func insertAction(c *cli.Context) error {
	mapping, err := LoadBlockMapping(c.String("mapping"))
	if err != nil {
		return err
	}

	flat, size, err := ReadStructure(c.String("structure"), mapping, nil)
	if err != nil {
		return err
	}

	startX, startZ := c.Int("x"), c.Int("z")
	if !c.IsSet("x") || !c.IsSet("z") {
		x, z, dim, err := cdb.FirstChunkPosition(c.String("database"))
		if err != nil {
			return fmt.Errorf("probing first chunk position: %w", err)
		}
		slog.Info("using database's first chunk as start", "x", x, "z", z, "dimension", dim)
		if !c.IsSet("x") {
			startX = x
		}
		if !c.IsSet("z") {
			startZ = z
		}
	}

	inserter := &cdb.Inserter{}
	return inserter.Insert(c.String("database"), flat, size, startX, startZ, c.Int("slot"))
}
