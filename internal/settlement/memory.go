package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/JaimeStill/attest/internal/fees"
)

// Memory keeps instructions in process, one per instruction ID. Fail, when
// set, is returned by the next Disburse call and cleared.
type Memory struct {
	mu           sync.Mutex
	instructions []Instruction
	Fail         error
}

// NewMemory creates an empty in-process rail.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Disburse(_ context.Context, plan fees.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		err := m.Fail
		m.Fail = nil
		return err
	}

	ins, err := newInstruction(plan, time.Now().UTC())
	if err != nil {
		return err
	}
	for i, prior := range m.instructions {
		if prior.ID == ins.ID {
			m.instructions[i] = ins
			return nil
		}
	}
	m.instructions = append(m.instructions, ins)
	return nil
}

func (m *Memory) Instructions(_ context.Context, subjectID, typeName string) ([]Instruction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Instruction
	for _, ins := range m.instructions {
		if ins.Plan.SubjectID == subjectID && ins.Plan.TypeName == typeName {
			out = append(out, ins)
		}
	}
	return out, nil
}

// Plans returns every disbursed plan in order.
func (m *Memory) Plans() []fees.Plan {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]fees.Plan, len(m.instructions))
	for i, ins := range m.instructions {
		out[i] = ins.Plan
	}
	return out
}
