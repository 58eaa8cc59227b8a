// Seeds an index with synthetic contracts so search can be exercised
// without an extraction model. Passages are classified by keyword and
// embedded with the deterministic mock embedder.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/passagedb"
	"github.com/poiesic/passagedb/ai/mock"
	"github.com/poiesic/passagedb/core"
)

var dbPath = flag.String("db", "./passage_index.db", "path to the index database file")

type contract struct {
	filename string
	clauses  []string
}

var contracts = []contract{
	{
		filename: "master-services-agreement.txt",
		clauses: []string{
			"The Supplier shall indemnify and hold harmless the Customer against all claims, damages, and expenses arising from the Supplier's breach of this Agreement.",
			"The aggregate liability of either party under this Agreement shall not exceed the total fees paid by the Customer in the twelve months preceding the claim.",
			"Either party may terminate this Agreement on ninety days written notice, or immediately upon a material breach that remains uncured for thirty days.",
			"Each party shall keep the other party's Confidential Information secret and use it solely for the performance of this Agreement.",
			"This Agreement shall be governed by and construed in accordance with the laws of England and Wales.",
		},
	},
	{
		filename: "software-license.txt",
		clauses: []string{
			"All intellectual property rights in the Software, including all modifications and derivative works, are assigned to and shall remain vested in the Licensor.",
			"The Licensee's liability is capped at the license fees paid in the preceding contract year, excluding liability for death or personal injury.",
			"The Licensor shall process personal data only on documented instructions from the Licensee and in compliance with applicable data protection law.",
			"Neither party shall be liable for any failure to perform caused by events beyond its reasonable control, including acts of God, war, or epidemic.",
		},
	},
	{
		filename: "consulting-agreement.txt",
		clauses: []string{
			"The Consultant hereby assigns to the Client all right, title, and interest in any work product created under this engagement.",
			"The Client may terminate this engagement at any time for convenience on fourteen days notice, paying only for services rendered to the date of termination.",
			"The Consultant shall not disclose the Client's trade secrets or proprietary information during or after the term of this Agreement.",
			"Any dispute arising from this Agreement shall be resolved under the laws of the State of New York.",
			"The Consultant shall indemnify the Client against claims that the work product infringes any third party intellectual property right.",
		},
	},
	{
		filename: "data-processing-addendum.txt",
		clauses: []string{
			"The Processor shall implement appropriate technical and organisational measures to protect personal data against unauthorised or unlawful processing.",
			"The Processor shall notify the Controller without undue delay after becoming aware of a personal data breach.",
			"Upon termination of the services, the Processor shall delete or return all personal data at the choice of the Controller.",
		},
	},
}

// categoryFor classifies a synthetic clause by keyword. Good enough for
// seed data; real ingestion uses the extraction model.
func categoryFor(clause string) core.Category {
	lower := strings.ToLower(clause)
	switch {
	case strings.Contains(lower, "indemnify"):
		return core.CategoryIndemnity
	case strings.Contains(lower, "liability"):
		return core.CategoryLiabilityCap
	case strings.Contains(lower, "terminat"):
		return core.CategoryTermination
	case strings.Contains(lower, "confidential") || strings.Contains(lower, "trade secrets"):
		return core.CategoryConfidentiality
	case strings.Contains(lower, "intellectual property") || strings.Contains(lower, "assigns"):
		return core.CategoryIPAssignment
	case strings.Contains(lower, "governed by") || strings.Contains(lower, "laws of"):
		return core.CategoryGoverningLaw
	case strings.Contains(lower, "personal data"):
		return core.CategoryDataProtection
	case strings.Contains(lower, "beyond its reasonable control") || strings.Contains(lower, "acts of god"):
		return core.CategoryForceMajeure
	default:
		return core.CategoryOther
	}
}

func main() {
	flag.Parse()

	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockExtractor().ExtractPassagesFunc = func(_ context.Context, text string) ([]core.CandidatePassage, error) {
		var candidates []core.CandidatePassage
		offset := 0
		for _, para := range strings.Split(text, "\n\n") {
			trimmed := strings.TrimSpace(para)
			if trimmed != "" {
				candidates = append(candidates, core.CandidatePassage{
					Category:        string(categoryFor(trimmed)),
					Text:            trimmed,
					CharOffsetStart: offset + strings.Index(para, trimmed),
					Confidence:      0.85,
				})
			}
			offset += len(para) + 2
		}
		return candidates, nil
	}

	db, err := passagedb.Open(*dbPath, passagedb.WithAIProvider(provider))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	ctx := context.Background()
	for _, c := range contracts {
		source := strings.Join(c.clauses, "\n\n")
		doc, err := pipeline.IngestDocument(ctx, []byte(source), c.filename)
		if err != nil {
			panic(err)
		}
		slog.Info("seeded document", "filename", c.filename, "documentID", doc.DocumentID, "passages", doc.PassageCount)
	}

	fmt.Printf("Seeded %d documents into %s\n", len(contracts), *dbPath)
}
