package things

// Operation names a repository operation that can be guarded
type Operation string

const (
	OpSave        Operation = "save"
	OpFindByID    Operation = "findById"
	OpFindAll     Operation = "findAll"
	OpFindAllByID Operation = "findAllById"
	OpExistsByID  Operation = "existsById"
	OpCount       Operation = "count"
	OpDeleteByID  Operation = "deleteById"
	OpDelete      Operation = "delete"
)

// Operations lists every guardable operation
func Operations() []Operation {
	return []Operation{
		OpSave,
		OpFindByID,
		OpFindAll,
		OpFindAllByID,
		OpExistsByID,
		OpCount,
		OpDeleteByID,
		OpDelete,
	}
}

// Policy declares the rules guarding a repository. Type rules apply to every
// operation. Method rules apply to a single operation and are evaluated in
// addition to the type rules: both levels must pass.
type Policy struct {
	Type    []Rule
	Methods map[Operation][]Rule
}

// NewPolicy creates a policy with the given type level rules
func NewPolicy(typeRules ...Rule) Policy {
	return Policy{
		Type:    typeRules,
		Methods: map[Operation][]Rule{},
	}
}

// WithMethod adds rules for a single operation
func (p Policy) WithMethod(op Operation, rules ...Rule) Policy {
	methods := make(map[Operation][]Rule, len(p.Methods)+1)
	for k, v := range p.Methods {
		methods[k] = v
	}
	methods[op] = append(append([]Rule{}, methods[op]...), rules...)
	p.Methods = methods
	return p
}

// TypeRules returns the rules applied to every operation
func (p Policy) TypeRules() []Rule {
	return p.Type
}

// MethodRules returns the rules declared for op only
func (p Policy) MethodRules(op Operation) []Rule {
	if p.Methods == nil {
		return nil
	}
	return p.Methods[op]
}

// IsGuarded reports whether any rule applies to op
func (p Policy) IsGuarded(op Operation) bool {
	return len(p.Type) > 0 || len(p.MethodRules(op)) > 0
}

// DefaultThingPolicy requires BOGUS on the whole repository and again on
// FindByID. The sole default principal only holds USER, so every call is
// denied for it.
func DefaultThingPolicy() Policy {
	return NewPolicy(HasRole(RoleBogus)).
		WithMethod(OpFindByID, HasRole(RoleBogus))
}
