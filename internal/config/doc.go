// Package config loads and validates the integration harness configuration.
//
// Configuration lives in an integration.toml file found in the working
// directory or under $XDG_CONFIG_HOME/integration-ctl/. Every field has a
// default, so the harness is usable with no file present at all:
//
//	compose_dir = "."
//	workflows_dir = "workflows"
//	test_service = "integration_test_workflow"
//
//	[workflow]
//	tag = "virtool/workflow"
//	dockerfile = "docker/workflow.Dockerfile"
//	remote = "https://github.com/virtool/virtool-workflow"
//	branch = "master"
package config
