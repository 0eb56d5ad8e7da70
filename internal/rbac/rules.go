package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"evaluator": {
		"student:create",
		"student:view",
		"report_type:view",
		"rubric:view",
		"evaluation:create",
		"evaluation:view",
		"report:view",
		"statistics:view",
	},
	"admin": {
		"*", // everything
	},
}
