package main

import (
	"fmt"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"
	"github.com/volatiletech/null/v8"

	"github.com/signbank/signbank/core/dictionary"
)

func (cl *commandLine) exportECVAction(c *cli.Context) error {
	file, err := cl.exporter.UpdateECV(c.Context)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.App.Writer, "ECV written to %s\n", file)
	return nil
}

func (cl *commandLine) packageAction(c *cli.Context) error {
	var since null.Int64
	if c.IsSet("since") {
		ts := c.Int64("since")
		if ts < 0 {
			return fmt.Errorf("since must be a unix timestamp (got %d)", ts)
		}
		since = null.Int64From(ts)
	}
	file, err := cl.exporter.BuildPackage(c.Context, since)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.App.Writer, "package written to %s\n", file)
	return nil
}

func (cl *commandLine) missingVideoAction(c *cli.Context) error {
	glosses, err := cl.dictSvc.MissingVideos(c.Context)
	if err != nil {
		return err
	}
	tbl := table.New("ID", "Gloss", "SN", "Expected video").WithWriter(c.App.Writer)
	for _, g := range glosses {
		sn := ""
		if g.SN.Valid {
			sn = fmt.Sprint(g.SN.Int)
		}
		tbl.AddRow(g.ID, g.IDGloss, sn, cl.dictSvc.VideoPath(g))
	}
	tbl.Print()
	_, _ = fmt.Fprintf(c.App.Writer, "%d glosses without video\n", len(glosses))
	return nil
}

func (cl *commandLine) linkVideosAction(c *cli.Context) error {
	videos, err := cl.dictSvc.LinkVideos(c.Context)
	if err != nil {
		return err
	}
	tbl := table.New("Gloss ID", "Video").WithWriter(c.App.Writer)
	for _, vid := range videos {
		tbl.AddRow(vid.GlossID, vid.VideoFile)
	}
	tbl.Print()
	_, _ = fmt.Fprintf(c.App.Writer, "%d videos linked\n", len(videos))
	return nil
}

func (cl *commandLine) addChoiceAction(c *cli.Context) error {
	fc := dictionary.FieldChoice{Field: c.String("field"), MachineValue: c.String("value"), EnglishName: c.String("name")}
	if fc.Field == "" || fc.MachineValue == "" || fc.EnglishName == "" {
		return usage(c)
	}
	fc, err := cl.dictSvc.CreateFieldChoice(c.Context, fc)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.App.Writer, "choice %d added to %s\n", fc.ID, fc.Field)
	return nil
}
