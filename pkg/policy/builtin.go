package policy

// BuiltinPacks returns the Rego policy packs icewatch ships with.
func BuiltinPacks() []Pack {
	return []Pack{
		criticalEscalationPack(),
		mutationWhileActivePack(),
	}
}

// criticalEscalationPack raises an advisory alert whenever a report carries
// any critical finding, regardless of what the rule table decided.
func criticalEscalationPack() Pack {
	return Pack{
		Name:        "critical-escalation",
		Description: "Escalates any report carrying a critical finding",
		Enabled:     true,
		Rego: `package icewatch.policies.escalation

import rego.v1

deny contains violation if {
	some finding in input.report.findings
	finding.severity == "Critical"
	violation := {
		"message": sprintf("critical drift present: %s", [finding.message]),
		"severity": "Critical",
		"action": "Alert",
	}
}
`,
	}
}

// mutationWhileActivePack flags catalogs mutated behind the control plane's
// back as worth an operator look even when only warnings were found.
func mutationWhileActivePack() Pack {
	return Pack{
		Name:        "mutation-while-active",
		Description: "Flags unexpected catalog mutations on stable tables",
		Enabled:     true,
		Rego: `package icewatch.policies.mutation

import rego.v1

deny contains violation if {
	input.expected_state == "Active"
	some finding in input.report.findings
	finding.drift_type == "UnexpectedMutation"
	violation := {
		"message": "catalog mutated while table was expected stable; review writer access",
		"severity": "Warning",
		"action": "Observe",
	}
}
`,
	}
}
