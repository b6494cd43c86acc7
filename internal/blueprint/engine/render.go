package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

const (
	embedColor = "#0DE1A1"
	// mobileSpacer widens narrow chat clients so code blocks are not squished.
	mobileSpacer = ". . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . . ."
)

// Render formats a report as a chat message.
func Render(r *Report, mobile bool) *blueprint.Message {
	bp := r.Blueprint
	msg := &blueprint.Message{
		Title:        blueprintItemName(bp),
		Description:  fmt.Sprintf("Type **%s**\nTech Level **%d**", bp.Type, bp.TechLevel),
		Color:        embedColor,
		ThumbnailURL: r.ThumbnailURL,
	}
	if mobile {
		msg.Author = mobileSpacer
	}

	for _, g := range r.Groups {
		msg.AddField(g.Title, renderGroup(g, mobile))
	}
	msg.AddField("Production", renderProduction(r, mobile))
	if r.Market != nil {
		msg.AddField("Cost", renderCosts(r, mobile))
	}
	return msg
}

func codeBlock(body string) string {
	return "```\n" + body + "```"
}

func renderGroup(g GroupCost, mobile bool) string {
	var b strings.Builder
	for _, line := range g.Lines {
		b.WriteString(align(line.Name, strconv.FormatInt(line.Quantity, 10), mobile))
		if line.Priced {
			sep := " "
			if mobile {
				sep = "\n"
			}
			fmt.Fprintf(&b, "%s[%s > %s]", sep, ISK(line.UnitCost), ISK(line.Cost))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(align("Total Cost", ISK(g.Subtotal), mobile))
	return codeBlock(b.String())
}

func renderProduction(r *Report, mobile bool) string {
	var b strings.Builder
	b.WriteString(align("Manufacturing cost", ISK(r.Blueprint.ProductionCost), mobile) + "\n")
	b.WriteString(align("Manufacturing time", FormatDuration(r.BuildTimeMs), mobile) + "\n")
	b.WriteString(align("Runs available", strconv.Itoa(r.Blueprint.ProductionCount), mobile) + "\n")
	return codeBlock(b.String())
}

func renderCosts(r *Report, mobile bool) string {
	runs := float64(r.Blueprint.ProductionCount)
	bpQuote := r.Market.Blueprint

	var sellLow, sellMed float64
	if q := r.Market.Item; q != nil {
		sellLow = q.LowestSell * runs
		sellMed = q.Sell * runs
	}

	lowMed := func(low, med float64) string {
		return fmt.Sprintf("low %s | median %s", ISK(low), ISK(med))
	}

	var b strings.Builder
	b.WriteString(align("Cost to build", ISK(r.TotalCost), mobile) + "\n")
	b.WriteString(align("Blueprint Cost", lowMed(bpQuote.LowestSell, bpQuote.Sell), mobile) + "\n")
	b.WriteString(align("Market sell", lowMed(sellLow, sellMed), mobile) + "\n")
	b.WriteString(align("Profit margin", lowMed(sellLow-r.TotalCost, sellMed-r.TotalCost), mobile) + "\n")
	b.WriteString(align("(If buying BP)",
		lowMed(sellLow-(r.TotalCost+bpQuote.LowestSell), sellMed-(r.TotalCost+bpQuote.Sell)), mobile) + "\n")
	return codeBlock(b.String())
}
