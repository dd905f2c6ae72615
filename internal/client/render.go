package client

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	placeholderTitle = "(unavailable)"
	maxNoteWidth     = 40
)

// ImageURLFunc turns a poster reference into a displayable URL.
type ImageURLFunc func(posterRef string) string

// Render writes views as a table. imageURL may be nil to print raw poster refs.
func Render(w io.Writer, views []View, imageURL ImageURLFunc) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No favorites yet")
		return err
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Title", "Note", "Poster", "Status"})

	for _, v := range views {
		title := v.Title
		if title == "" {
			title = placeholderTitle
		}
		poster := v.PosterRef
		if poster != "" && imageURL != nil {
			poster = imageURL(poster)
		}
		note := ""
		if v.Note != nil {
			note = *v.Note
		}
		tw.AppendRow(table.Row{strconv.FormatInt(v.ExternalID, 10), title, note, poster, viewStatus(v)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, WidthMax: maxNoteWidth},
	})

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func viewStatus(v View) string {
	if v.Placeholder {
		return "unavailable"
	}
	return "live"
}
