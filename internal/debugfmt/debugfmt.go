// Package debugfmt renders human-readable, styled dumps of storage and
// buffer-pool state for administrative inspection, grounded on the same
// lipgloss styling the reference codebase's own debug readers use.
package debugfmt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"coredb/pkg/memory"
	"coredb/pkg/storage/heap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#89B4FA")).
			Bold(true)

	dirtyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")).
			Bold(true)

	cleanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)
)

// HeapPageSummary renders one line describing a heap page's occupancy and
// dirty status.
func HeapPageSummary(p *heap.Page) string {
	pid := p.GetID()
	empty := p.NumEmptySlots()
	status := cleanStyle.Render("clean")
	if tid := p.IsDirty(); tid != nil {
		status = dirtyStyle.Render(fmt.Sprintf("dirty(tid=%v)", tid))
	}
	return fmt.Sprintf("%s table=%d page=%d %s=%d %s",
		labelStyle.Render("page"), pid.TableID, pid.PageNumber,
		labelStyle.Render("empty-slots"), empty, status)
}

// BufferPoolDump renders a boxed, titled summary of every page currently
// resident in bp's cache.
func BufferPoolDump(bp *memory.BufferPool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("BufferPool") + "\n")

	pages := bp.CachedPages()
	if len(pages) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, p := range pages {
		hp, ok := p.(*heap.Page)
		if !ok {
			continue
		}
		b.WriteString(HeapPageSummary(hp) + "\n")
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
