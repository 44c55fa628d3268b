package usecase

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/texcare/guide-tracker/internal/core/domain"
)

// IntakePipeline is the only component that touches raw reader samples.
// It owns its own sample buffer with an explicit session lifecycle: the tag
// source feeds Collect while the operator holds the reader, and Drain folds
// the session into one normalized scan. Downstream components never see
// duplicates.
type IntakePipeline struct {
	mu     sync.Mutex
	buffer map[string]domain.TagScanSample
}

func NewIntakePipeline() *IntakePipeline {
	return &IntakePipeline{buffer: make(map[string]domain.TagScanSample)}
}

// Collect folds one raw sample into the session buffer. Last seen wins for
// rssi/timestamp; identity dedup is what matters downstream.
func (p *IntakePipeline) Collect(sample domain.TagScanSample) {
	if sample.EPC == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer[sample.EPC] = sample
}

// Samples snapshots the current session buffer.
func (p *IntakePipeline) Samples() []domain.TagScanSample {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.TagScanSample, 0, len(p.buffer))
	for _, sample := range p.buffer {
		out = append(out, sample)
	}
	return out
}

// Reset clears the session buffer. Callers reset at the screen/session
// boundary that owns the reading session.
func (p *IntakePipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = make(map[string]domain.TagScanSample)
}

// Drain normalizes the buffered session and resets the buffer.
func (p *IntakePipeline) Drain(sctx domain.StageContext) (domain.NormalizedScan, error) {
	scan, err := p.Intake(p.Samples(), sctx)
	if err != nil {
		return domain.NormalizedScan{}, err
	}
	p.Reset()
	return scan, nil
}

// Intake deduplicates raw samples and attaches the stage metadata. The scan
// type is derived from the stage context, never from tag content. The
// quantity invariant (scanned_quantity == distinct tag count) is enforced
// here and nowhere else trusts callers for it.
//
// Stages without a checkpoint (IN_TRANSIT, LOADING, ...) produce a scan with
// an empty scan type: nothing is recorded there, so nothing is required
// either. Only checkpoint stages insist on at least one tag.
func (p *IntakePipeline) Intake(samples []domain.TagScanSample, sctx domain.StageContext) (domain.NormalizedScan, error) {
	if sctx.GuideID == "" {
		return domain.NormalizedScan{}, domain.WrapError(domain.ErrInvalidInput, "scan intake", errors.New("guide id is required"))
	}
	if !domain.IsKnownStage(sctx.Stage) {
		return domain.NormalizedScan{}, domain.WrapError(
			domain.ErrInvalidInput,
			"scan intake",
			fmt.Errorf("unknown stage %q", sctx.Stage),
		)
	}

	scanType, hasCheckpoint := domain.ScanTypeForStage(sctx.Stage, sctx.ServiceType)

	seen := make(map[string]struct{}, len(samples))
	codes := make([]string, 0, len(samples))
	for _, sample := range samples {
		if sample.EPC == "" {
			continue
		}
		if _, dup := seen[sample.EPC]; dup {
			continue
		}
		seen[sample.EPC] = struct{}{}
		codes = append(codes, sample.EPC)
	}
	sort.Strings(codes)

	if hasCheckpoint && len(codes) == 0 && !sctx.AllowEmpty {
		return domain.NormalizedScan{}, domain.WrapError(
			domain.ErrInvalidInput,
			"scan intake",
			fmt.Errorf("stage %s requires at least one scanned tag", sctx.Stage),
		)
	}

	return domain.NormalizedScan{
		GuideID:  sctx.GuideID,
		Stage:    sctx.Stage,
		ScanType: scanType,
		Codes:    codes,
		Quantity: len(codes),
		Location: sctx.Location,
		Operator: sctx.Operator,
		BranchID: sctx.BranchID,
	}, nil
}
