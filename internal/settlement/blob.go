package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/attest/internal/fees"
	"github.com/JaimeStill/attest/pkg/storage"
)

const keyTimeLayout = "20060102T150405.000000000Z"

// BlobRail writes one JSON instruction blob per plan under
// <subject>/<type>/<created>-<id>.json. The key depends only on the plan, so
// disbursing the same plan twice overwrites one blob.
type BlobRail struct {
	store  storage.System
	logger *slog.Logger
	now    func() time.Time
}

// NewBlobRail creates a rail backed by blob storage.
func NewBlobRail(store storage.System, logger *slog.Logger) *BlobRail {
	return &BlobRail{
		store:  store,
		logger: logger.With("system", "settlement", "rail", "blob"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (b *BlobRail) Disburse(ctx context.Context, plan fees.Plan) error {
	ins, err := newInstruction(plan, b.now())
	if err != nil {
		return err
	}

	data, err := json.Marshal(ins)
	if err != nil {
		return fmt.Errorf("marshal instruction: %w", err)
	}

	key := instructionKey(ins)
	if err := b.store.Put(ctx, key, data, "application/json"); err != nil {
		return fmt.Errorf("write instruction: %w", err)
	}

	b.logger.Info("disbursement instruction written",
		"key", key,
		"subject", plan.SubjectID,
		"type_name", plan.TypeName,
		"payments", len(plan.Payments),
		"total", ins.Total,
	)
	return nil
}

// Instructions returns the instructions for a classification, oldest first.
func (b *BlobRail) Instructions(ctx context.Context, subjectID, typeName string) ([]Instruction, error) {
	prefix := path.Join(subjectID, typeName) + "/"

	keys, err := b.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list instructions: %w", err)
	}
	slices.Sort(keys)

	out := make([]Instruction, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		data, err := b.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read instruction %s: %w", key, err)
		}
		var ins Instruction
		if err := json.Unmarshal(data, &ins); err != nil {
			return nil, fmt.Errorf("decode instruction %s: %w", key, err)
		}
		out = append(out, ins)
	}
	return out, nil
}

func instructionKey(ins Instruction) string {
	name := fmt.Sprintf("%s-%s.json", ins.Plan.CreatedAt.UTC().Format(keyTimeLayout), ins.ID)
	return path.Join(ins.Plan.SubjectID, ins.Plan.TypeName, name)
}
