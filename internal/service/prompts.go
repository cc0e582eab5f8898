package service

import (
	"fmt"
	"sort"
	"strings"

	"core/internal/config"
	"core/internal/model"
	"core/internal/utils"
)

// contextProperties bounds how many properties are serialized into a prompt
// context block.
const contextProperties = 5

// buildSystemPrompt is the base persona for every gateway call
func buildSystemPrompt(company config.CompanyConfig) string {
	return fmt.Sprintf(`You are a professional real estate consultant for %s, a property agency in Nairobi, Kenya.

Guidelines:
- Be warm, concise and helpful; answer in 2-4 short paragraphs at most
- Only discuss properties and data provided in the context below; never invent listings or prices
- Prices are in Kenyan Shillings (KSh)
- When a customer shows interest in a property, offer to arrange a viewing
- For questions you cannot answer from the context, direct the customer to %s or %s

Areas we cover: %s`,
		company.Name, company.Phone, company.Email, strings.Join(sortedAreas(), ", "))
}

func sortedAreas() []string {
	areas := utils.KnownLocationNames()
	sort.Strings(areas)
	return areas
}

// formatProperties serializes properties into a bounded context block
func formatProperties(header string, properties []model.Property) string {
	if len(properties) == 0 {
		return header + "\n(no properties)"
	}

	shown := properties
	if len(shown) > contextProperties {
		shown = shown[:contextProperties]
	}

	var b strings.Builder
	b.WriteString(header)
	for _, p := range shown {
		fmt.Fprintf(&b, "\n- %s | %s | KSh %s | %s", p.Title, p.Location, formatPrice(p.Price), p.Status)
		if p.Bedrooms != nil {
			fmt.Fprintf(&b, " | %d bedrooms", *p.Bedrooms)
		}
		if p.Bathrooms != nil {
			fmt.Fprintf(&b, " | %d bathrooms", *p.Bathrooms)
		}
		if p.SizeSqft != nil {
			fmt.Fprintf(&b, " | %.0f sqft", *p.SizeSqft)
		}
	}
	return b.String()
}

// formatPrice renders a KSh figure the way an agent would say it
func formatPrice(price float64) string {
	switch {
	case price >= 1_000_000:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", price/1_000_000), ".0") + "M"
	case price >= 1_000:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", price/1_000), ".0") + "K"
	default:
		return fmt.Sprintf("%.0f", price)
	}
}

func formatPropertyStats(stats *model.PropertyStats) string {
	return fmt.Sprintf(
		"Portfolio: %d properties (%d available, %d sold, %d rented). Prices range KSh %s to KSh %s, averaging KSh %s.",
		stats.Total, stats.Available, stats.Sold, stats.Rented,
		formatPrice(stats.MinPrice), formatPrice(stats.MaxPrice), formatPrice(stats.AveragePrice))
}

func formatAgents(agents []model.Agent, stats *model.AgentStats) string {
	var b strings.Builder
	if stats != nil {
		fmt.Fprintf(&b, "Team: %d agents, %d currently active.", stats.Total, stats.Active)
	}
	for i, a := range agents {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "\n- %s (%s): %s, %s", a.Name, a.Role, a.Phone, a.Email)
	}
	return b.String()
}

func formatTaskStats(stats *model.TaskStats) string {
	return fmt.Sprintf("Tasks: %d total (%d pending, %d in progress, %d completed, %d overdue).",
		stats.Total, stats.Pending, stats.InProgress, stats.Completed, stats.Overdue)
}

// formatTasks combines the aggregate with the most recent open items
func formatTasks(tasks []model.Task, stats *model.TaskStats) string {
	var b strings.Builder
	b.WriteString(formatTaskStats(stats))
	shown := 0
	for _, task := range tasks {
		if task.Status == "completed" {
			continue
		}
		if shown >= 5 {
			break
		}
		fmt.Fprintf(&b, "\n- %s (%s, %s priority)", task.Title, task.Status, task.Priority)
		shown++
	}
	return b.String()
}

func formatAnalytics(analytics *model.PropertyAnalytics) string {
	var b strings.Builder
	b.WriteString(formatPropertyStats(&analytics.Stats))
	fmt.Fprintf(&b, "\nNew this month: %d. Viewing requests to date: %d.", analytics.NewThisMonth, analytics.ViewingsTotal)
	if len(analytics.ByLocation) > 0 {
		b.WriteString("\nBy location:")
		for _, lc := range analytics.ByLocation {
			fmt.Fprintf(&b, " %s (%d)", lc.Location, lc.Count)
		}
	}
	return b.String()
}

func formatAvailability(report *model.AvailabilityReport) string {
	if report.Available == 0 {
		return "No properties are currently listed as available."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d properties currently available, priced KSh %s to KSh %s.",
		report.Available, formatPrice(report.PriceFrom), formatPrice(report.PriceTo))
	if len(report.Locations) > 0 {
		fmt.Fprintf(&b, " Locations: %s.", strings.Join(report.Locations, ", "))
	}
	if len(report.SampleTitles) > 0 {
		fmt.Fprintf(&b, " Highlights: %s.", strings.Join(report.SampleTitles, "; "))
	}
	return b.String()
}

// formatKnowledge serializes corpus entries of the given kinds for a context block
func formatKnowledge(entries []model.KnowledgeEntry, kinds ...model.KnowledgeKind) string {
	wanted := map[model.KnowledgeKind]bool{}
	for _, k := range kinds {
		wanted[k] = true
	}

	var b strings.Builder
	for _, e := range entries {
		if len(wanted) > 0 && !wanted[e.Kind] {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %s", e.Title, e.Content)
	}
	return strings.TrimPrefix(b.String(), "\n")
}
