// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

const (
	// DefaultMaxIterations is the default bound on block visits of the dataflow solver. 0 means unbounded: the
	// lattices of the analyses have finite height, so the solver terminates.
	DefaultMaxIterations = 0

	// OutputText is the human-readable method body format
	OutputText = "text"
	// OutputYAML is the yaml method body format
	OutputYAML = "yaml"
	// OutputMsgpack is the binary msgpack method body format
	OutputMsgpack = "msgpack"
)

// OutputFormats lists the accepted values of the output-format option
var OutputFormats = []string{OutputText, OutputYAML, OutputMsgpack}
