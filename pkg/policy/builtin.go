package policy

// BuiltinPolicies returns the policies compiled into every engine.
func BuiltinPolicies() []Policy {
	return []Policy{
		protectedDeploymentPolicy(),
		componentNamingPolicy(),
	}
}

// protectedDeploymentPolicy blocks destructive operations against
// deployments labeled protected.
func protectedDeploymentPolicy() Policy {
	return Policy{
		Name:        "protected-deployment",
		Description: "Blocks undeploy and root destruction for deployments labeled protected=true",
		Severity:    SeverityError,
		Enabled:     true,
		Rego: `package bosun.policies.protected

import rego.v1

deny contains violation if {
	input.destructive
	input.deployment.labels.protected == "true"
	violation := {
		"message": sprintf("deployment %s is labeled protected and cannot be undeployed", [input.deployment.name]),
		"severity": "error",
	}
}

deny contains violation if {
	input.destroy_root
	input.deployment.labels.protected == "true"
	violation := {
		"message": sprintf("root module of protected deployment %s cannot be destroyed", [input.deployment.name]),
		"severity": "error",
	}
}
`,
	}
}

// componentNamingPolicy warns about component paths that stray from the
// lowercase alphanumeric-and-hyphen convention.
func componentNamingPolicy() Policy {
	return Policy{
		Name:        "component-naming",
		Description: "Warns when component names are not lowercase alphanumeric with hyphens",
		Severity:    SeverityWarning,
		Enabled:     true,
		Rego: `package bosun.policies.naming

import rego.v1

deny contains violation if {
	some component in input.components
	not regex.match("^[a-z0-9-]+(/[a-z0-9-]+)*$", component.path)
	violation := {
		"message": sprintf("component %s does not follow the lowercase-hyphen naming convention", [component.path]),
		"severity": "warning",
	}
}
`,
	}
}
