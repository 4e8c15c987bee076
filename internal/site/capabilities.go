package site

// Capability is a product feature page.
type Capability struct {
	Slug    string
	Title   string
	Summary string
	Points  []string
}

var capabilities = []Capability{
	{
		Slug:    "ai-drafting",
		Title:   "AI drafting",
		Summary: "Turn emails, spreadsheets and drawings into a structured RFQ.",
		Points: []string{
			"Upload PDFs, images, Excel, CSV or Word files and get line items back.",
			"Chat to add, change or remove lines; the table updates as you talk.",
			"Grades, sizes and tolerances are kept as separate fields suppliers can price.",
		},
	},
	{
		Slug:    "supplier-links",
		Title:   "Zero-login supplier links",
		Summary: "Suppliers quote from a link. No portal, no account.",
		Points: []string{
			"The RFQ travels inside the link, with your internal notes left out.",
			"Suppliers answer with a quote link you open to import the bid.",
			"Print a QR code on a paper RFQ for walk-in counters.",
		},
	},
	{
		Slug:    "bid-comparison",
		Title:   "Bid comparison",
		Summary: "Best price, fastest delivery and a clear recommendation.",
		Points: []string{
			"Totals converted to your base currency before ranking.",
			"Lead times read from free text like \"2-3 weeks\".",
			"Export the line-by-line matrix to Excel.",
		},
	},
	{
		Slug:    "spec-audit",
		Title:   "Spec audit",
		Summary: "Catch missing grades, tolerances and certificates before sending.",
		Points: []string{
			"Findings are graded low, medium or high and tied to a line.",
			"Runs on demand from the workspace.",
		},
	},
	{
		Slug:    "supplier-discovery",
		Title:   "Supplier discovery",
		Summary: "Find mills and stockholders that can quote, by region.",
		Points: []string{
			"Web-grounded search proposes suppliers with their websites.",
			"Every supplier that quotes joins your directory automatically.",
			"Directory matching ranks known suppliers against each new RFQ.",
		},
	},
	{
		Slug:    "purchase-orders",
		Title:   "Purchase orders",
		Summary: "Generate a PO from the winning quote in one click.",
		Points: []string{
			"Your company block, the supplier's prices and the agreed terms.",
			"Every PO is archived with the RFQ.",
		},
	},
}

// Capabilities lists the feature pages.
func Capabilities() []Capability {
	return capabilities
}

func capabilityBySlug(slug string) (Capability, bool) {
	for _, c := range capabilities {
		if c.Slug == slug {
			return c, true
		}
	}
	return Capability{}, false
}
