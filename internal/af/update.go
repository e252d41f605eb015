package af

import "fmt"

// UpdateKind enumerates the four structural change operations.
type UpdateKind uint8

const (
	AddArgument UpdateKind = iota + 1
	RemoveArgument
	AddAttack
	RemoveAttack
)

func (k UpdateKind) String() string {
	switch k {
	case AddArgument:
		return "add-argument"
	case RemoveArgument:
		return "remove-argument"
	case AddAttack:
		return "add-attack"
	case RemoveAttack:
		return "remove-attack"
	default:
		return fmt.Sprintf("update-kind(%d)", uint8(k))
	}
}

// UpdateOp is a single structural change request. Arg is set for argument
// ops, Att for attack ops. Cascade applies only to RemoveArgument and
// makes the removal sweep incident attacks atomically; without it,
// removing an attacked argument is rejected.
type UpdateOp struct {
	Kind    UpdateKind
	Arg     string
	Att     Attack
	Cascade bool
}

func (op UpdateOp) String() string {
	switch op.Kind {
	case AddArgument:
		return fmt.Sprintf("+arg(%s)", op.Arg)
	case RemoveArgument:
		if op.Cascade {
			return fmt.Sprintf("-arg(%s)~", op.Arg)
		}
		return fmt.Sprintf("-arg(%s)", op.Arg)
	case AddAttack:
		return fmt.Sprintf("+att(%s,%s)", op.Att.From, op.Att.To)
	case RemoveAttack:
		return fmt.Sprintf("-att(%s,%s)", op.Att.From, op.Att.To)
	default:
		return op.Kind.String()
	}
}

// NewAddArgument builds an argument-addition op.
func NewAddArgument(id string) UpdateOp {
	return UpdateOp{Kind: AddArgument, Arg: id}
}

// NewRemoveArgument builds an argument-removal op. With cascade set the
// removal also deletes incident attacks.
func NewRemoveArgument(id string, cascade bool) UpdateOp {
	return UpdateOp{Kind: RemoveArgument, Arg: id, Cascade: cascade}
}

// NewAddAttack builds an attack-addition op.
func NewAddAttack(from, to string) UpdateOp {
	return UpdateOp{Kind: AddAttack, Att: Attack{From: from, To: to}}
}

// NewRemoveAttack builds an attack-removal op.
func NewRemoveAttack(from, to string) UpdateOp {
	return UpdateOp{Kind: RemoveAttack, Att: Attack{From: from, To: to}}
}

// ValidationError reports an update that references a missing entity or
// would violate the framework invariants. The framework is unchanged when
// one is returned.
type ValidationError struct {
	Op     UpdateOp
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Op.Kind == 0 {
		return "invalid instance: " + e.Reason
	}
	return fmt.Sprintf("invalid update %s: %s", e.Op, e.Reason)
}
