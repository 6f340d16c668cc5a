package client

import (
	"chatbox-backend/internal/models"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gookit/color"
)

// Variant is how a message is drawn relative to the viewer.
type Variant int

const (
	VariantOther Variant = iota
	VariantOwn
)

func (v Variant) String() string {
	if v == VariantOwn {
		return "own"
	}
	return "other"
}

// VariantOf depends only on whether the viewer wrote the message.
func VariantOf(viewerID, authorID uuid.UUID) Variant {
	if viewerID == authorID {
		return VariantOwn
	}
	return VariantOther
}

var (
	ownStyle   = color.New(color.FgWhite, color.BgBlue)
	otherStyle = color.New(color.FgBlack, color.BgWhite)
	metaStyle  = color.New(color.FgDarkGray)
)

// TerminalRenderer redraws the message list as plain lines: own messages
// right-aligned on a primary background, others left-aligned on a white one.
type TerminalRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	width  int
	colors bool
}

// NewTerminalRenderer writes to out using the given line width. colors turns
// ANSI styling on.
func NewTerminalRenderer(out io.Writer, width int, colors bool) *TerminalRenderer {
	if width <= 0 {
		width = 80
	}
	return &TerminalRenderer{out: out, width: width, colors: colors}
}

func (r *TerminalRenderer) Render(viewer Viewer, msgs []models.MessageResponse) {
	var b strings.Builder
	if r.colors {
		b.WriteString("\033[H\033[2J")
	}
	for _, m := range msgs {
		v := VariantOf(viewer.ID, m.UserID)
		b.WriteString(r.line(v, fmt.Sprintf("%s · %s", m.User.Name, m.Time), metaStyle))
		style := otherStyle
		if v == VariantOwn {
			style = ownStyle
		}
		b.WriteString(r.line(v, " "+m.Text+" ", style))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.out, b.String())
}

func (r *TerminalRenderer) line(v Variant, text string, style color.Style) string {
	pad := 0
	if v == VariantOwn {
		pad = max(r.width-utf8.RuneCountInString(text), 0)
	}
	if r.colors {
		text = style.Render(text)
	}
	return strings.Repeat(" ", pad) + text + "\n"
}
