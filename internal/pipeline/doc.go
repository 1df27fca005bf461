// Package pipeline is the declarative step-configuration model.
//
// A project document carries a top-level "pipeline" key in one of two shapes:
//
//	# flat
//	pipeline:
//	  - step: CreateVEnv
//	    module: pypeline.steps.create_venv
//	  - step: Echo
//	    run: echo hello
//
//	# grouped
//	pipeline:
//	  install:
//	    - step: CreateVEnv
//	      module: pypeline.steps.create_venv
//	  test:
//	    - step: Pytest
//	      run: [pytest, -q]
//
// Both shapes decode into a [Config]. [Config.Groups] iterates them uniformly
// in declaration order; the flat shape yields a single group with an empty
// name. [Config.Filter] keeps the shape it was given.
//
// # Step Descriptors
//
// A [StepDescriptor] names a step and says where its implementation comes
// from: a registered module, a script file relative to the project root, or
// an inline command. With none of the three the step is looked up by name in
// every registered module.
package pipeline
