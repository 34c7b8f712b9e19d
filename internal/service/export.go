package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	"github.com/reviewdesk/reviewdesk/internal/repository"
)

// exportHeader is the CSV column set for review exports. The first six data
// columns mirror the upload template so an export can be re-imported.
var exportHeader = []string{
	"ID", "Marketplace", "Title", "Content", "Customer Name", "Customer Email",
	"Rating", "Sentiment", "Category", "Severity", "Status", "Created At",
	"AI Suggested Reply",
}

// exportPageSize bounds memory while streaming large exports.
const exportPageSize = 500

// ExportCSV streams all reviews matching the filter as RFC 4180 CSV. The
// filter's own pagination is ignored; the export walks the full result set.
func (s *ReviewService) ExportCSV(ctx context.Context, filter repository.ReviewFilter, w io.Writer) error {
	if filter.Marketplace != nil && !domain.IsValidMarketplace(*filter.Marketplace) {
		return fmt.Errorf("unknown marketplace: %s", *filter.Marketplace)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	filter.PerPage = exportPageSize
	for page := 1; ; page++ {
		filter.Page = page

		reviews, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("export page %d: %w", page, err)
		}

		for i := range reviews {
			if err := cw.Write(exportRow(&reviews[i])); err != nil {
				return fmt.Errorf("write export row: %w", err)
			}
		}

		if page*exportPageSize >= total || len(reviews) == 0 {
			break
		}
	}

	cw.Flush()
	return cw.Error()
}

func exportRow(rv *domain.Review) []string {
	email := ""
	if rv.CustomerEmail != nil {
		email = *rv.CustomerEmail
	}
	rating := ""
	if rv.Rating != nil {
		rating = strconv.Itoa(*rv.Rating)
	}
	reply := ""
	if rv.AISuggestedReply != nil {
		reply = *rv.AISuggestedReply
	}

	return []string{
		rv.ID,
		rv.Marketplace,
		rv.Title,
		rv.Content,
		rv.CustomerName,
		email,
		rating,
		rv.Sentiment,
		rv.Category,
		rv.Severity,
		rv.Status,
		rv.CreatedAt.UTC().Format(time.RFC3339),
		reply,
	}
}
