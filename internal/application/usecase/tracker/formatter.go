package tracker

import (
	"fmt"
	"sort"
	"strings"

	"cryptotracker/internal/domain"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Dir int

const (
	DirSame Dir = 0
	DirUp   Dir = +1
	DirDown Dir = -1
)

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

// Formatter renders the price table as a single console line. It remembers
// the last rendered price per asset to color the tick direction. Not safe
// for concurrent use; the tracker loop owns it.
type Formatter struct {
	assets []string
	ticker func(string) string
	last   map[string]float64
	dir    map[string]Dir
}

// NewFormatter renders assets in the given order. With no assets, every
// priced id is shown in sorted order.
func NewFormatter(assets []string, ticker func(string) string) *Formatter {
	if ticker == nil {
		ticker = strings.ToUpper
	}
	return &Formatter{
		assets: assets,
		ticker: ticker,
		last:   make(map[string]float64),
		dir:    make(map[string]Dir),
	}
}

// Observe records new prices and updates the tick direction of each.
func (f *Formatter) Observe(prices map[string]domain.Price) {
	for id, p := range prices {
		prev, ok := f.last[id]
		switch {
		case !ok || p.Price == prev:
			f.dir[id] = DirSame
		case p.Price > prev:
			f.dir[id] = DirUp
		default:
			f.dir[id] = DirDown
		}
		f.last[id] = p.Price
	}
}

func (f *Formatter) Render(prices map[string]domain.Price, status domain.ConnStatus, mode RenderMode) string {
	var sb strings.Builder
	if mode == RenderLive {
		sb.WriteString("\r")
	}

	sb.WriteString(colorize("[CT] ", ansiDim))
	sb.WriteString(colorize(statusLabel(status), statusColor(status)))

	for _, id := range f.order(prices) {
		sb.WriteString(colorize("  ||  ", ansiDim))
		sb.WriteString(f.ticker(id))
		sb.WriteString(" ")

		p, ok := prices[id]
		if !ok {
			sb.WriteString(colorize("--", ansiYellow))
			continue
		}

		col := ansiYellow
		switch f.dir[id] {
		case DirUp:
			col = ansiGreen
		case DirDown:
			col = ansiRed
		}
		sb.WriteString(colorize(FormatPrice(p.Price), col))

		chCol := ansiGreen
		if p.ChangePercent < 0 {
			chCol = ansiRed
		}
		sb.WriteString(" ")
		sb.WriteString(colorize(fmt.Sprintf("%+.2f%%", p.ChangePercent), chCol))
	}

	if mode == RenderLive {
		sb.WriteString(ansiClearEOL)
	}
	return sb.String()
}

func (f *Formatter) order(prices map[string]domain.Price) []string {
	if len(f.assets) > 0 {
		return f.assets
	}
	ids := make([]string, 0, len(prices))
	for id := range prices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FormatPrice keeps sub-dollar assets readable.
func FormatPrice(px float64) string {
	switch {
	case px >= 1:
		return fmt.Sprintf("%.2f", px)
	case px >= 0.01:
		return fmt.Sprintf("%.4f", px)
	default:
		return fmt.Sprintf("%.8f", px)
	}
}

func statusLabel(s domain.ConnStatus) string {
	switch s {
	case domain.StatusConnected:
		return "● live"
	case domain.StatusConnecting:
		return "◌ connecting"
	case domain.StatusError:
		return "✕ error"
	default:
		return "○ offline"
	}
}

func statusColor(s domain.ConnStatus) string {
	switch s {
	case domain.StatusConnected:
		return ansiGreen
	case domain.StatusError:
		return ansiRed
	default:
		return ansiYellow
	}
}
