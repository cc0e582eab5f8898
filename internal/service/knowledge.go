package service

import (
	"sort"
	"strings"

	"core/internal/model"
)

// KnowledgeBase is the static fallback corpus: company policies, services,
// market insights and FAQs. Loaded once, immutable for process lifetime.
type KnowledgeBase struct {
	entries []model.KnowledgeEntry
}

// NewKnowledgeBase loads the built-in corpus
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{entries: corpus()}
}

// Search scores every entry by counting how many whitespace-split tokens of
// the lower-cased query appear as substrings in the entry's text fields.
// Score-0 entries are excluded; results are ordered by descending score.
// Pure over the immutable corpus, so identical queries rank identically.
func (kb *KnowledgeBase) Search(query string) []model.RankedEntry {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	var ranked []model.RankedEntry
	for _, entry := range kb.entries {
		haystack := strings.ToLower(entry.Title + " " + entry.Content + " " + strings.Join(entry.Tags, " "))

		score := 0
		for _, token := range tokens {
			if strings.Contains(haystack, token) {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, model.RankedEntry{Entry: entry, Score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

// Entries returns the full corpus, for prompt context assembly
func (kb *KnowledgeBase) Entries() []model.KnowledgeEntry {
	return kb.entries
}

func corpus() []model.KnowledgeEntry {
	return []model.KnowledgeEntry{
		{
			Kind:    model.KnowledgePolicy,
			Title:   "Viewing policy",
			Content: "Property viewings are free of charge and arranged within 24 hours of a confirmed request. Viewings run Monday to Saturday, 9am to 5pm, accompanied by one of our agents. Weekend and evening slots are available on request.",
			Tags:    []string{"viewing", "visit", "schedule", "booking"},
		},
		{
			Kind:    model.KnowledgePolicy,
			Title:   "Offers and deposits",
			Content: "Offers are made in writing through your agent. A refundable reservation deposit of 10% secures a property while paperwork completes. Sale balances are due on transfer; rental deposits are one month's rent plus one month in advance.",
			Tags:    []string{"offer", "deposit", "payment", "reservation"},
		},
		{
			Kind:    model.KnowledgePolicy,
			Title:   "Required documents",
			Content: "Buyers need a copy of their national ID or passport and KRA PIN. For financed purchases we ask for a bank pre-approval letter. Tenants need ID, recent payslips or bank statements, and references from a previous landlord where available.",
			Tags:    []string{"documents", "id", "kra", "requirements"},
		},
		{
			Kind:    model.KnowledgeService,
			Title:   "Property sales and lettings",
			Content: "We sell and let residential property across Nairobi: apartments, townhouses, villas and standalone homes. Every listing is vetted, with verified title documents and professional photography.",
			Tags:    []string{"sales", "lettings", "rent", "buy"},
		},
		{
			Kind:    model.KnowledgeService,
			Title:   "Property management",
			Content: "Our management team handles tenant sourcing, rent collection, maintenance and inspections for landlords, with monthly statements and an annual portfolio review.",
			Tags:    []string{"management", "landlord", "maintenance"},
		},
		{
			Kind:    model.KnowledgeService,
			Title:   "Valuations and advisory",
			Content: "We provide market valuations for sale, purchase and financing decisions, and advisory on buy-to-let yields and capital growth across Nairobi's suburbs.",
			Tags:    []string{"valuation", "advisory", "investment"},
		},
		{
			Kind:    model.KnowledgeMarket,
			Title:   "Karen and Langata market",
			Content: "Karen remains Nairobi's prime low-density suburb, dominated by villas and standalone homes on half-acre plots. Prices hold steady year on year with strong demand for 4-5 bedroom family homes.",
			Tags:    []string{"karen", "langata", "market", "prices"},
		},
		{
			Kind:    model.KnowledgeMarket,
			Title:   "Westlands and Kilimani market",
			Content: "Westlands and Kilimani lead Nairobi's apartment market. New developments keep supply high, which favors buyers; 2 and 3 bedroom units dominate transactions and rental demand stays strong near the business district.",
			Tags:    []string{"westlands", "kilimani", "apartments", "market"},
		},
		{
			Kind:    model.KnowledgeMarket,
			Title:   "Satellite towns",
			Content: "Ruaka, Syokimau and Athi River offer the strongest entry-level value, driven by new infrastructure. Commute times matter: properties near the expressway and bypasses appreciate fastest.",
			Tags:    []string{"ruaka", "syokimau", "athi river", "affordable"},
		},
		{
			Kind:    model.KnowledgeFAQ,
			Title:   "Can foreigners buy property in Kenya?",
			Content: "Yes. Foreigners can own property in Kenya on leasehold tenure of up to 99 years. Agricultural land is restricted. We guide international buyers through the process end to end.",
			Tags:    []string{"foreigners", "leasehold", "ownership"},
		},
		{
			Kind:    model.KnowledgeFAQ,
			Title:   "How long does buying take?",
			Content: "A cash purchase typically completes in 6 to 8 weeks from accepted offer: due diligence, sale agreement, transfer and registration. Financed purchases add 3 to 4 weeks for bank processing.",
			Tags:    []string{"timeline", "buying", "process"},
		},
		{
			Kind:    model.KnowledgeFAQ,
			Title:   "Are your fees negotiable?",
			Content: "Buyers pay no agency fee; our commission comes from the seller. Letting fees are one month's rent for tenant placement. Management fees are a percentage of collected rent, agreed per portfolio.",
			Tags:    []string{"fees", "commission", "charges"},
		},
	}
}
