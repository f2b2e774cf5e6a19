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

package tools

import "regexp"

// Captures errors in method description files
var regexInvalidMethod = regexp.MustCompile("invalid method")

// Captures the kind of error that happen when you put a flag at the end instead of method files
var flagAfterFiles = regexp.MustCompile("could not read method file: open -(\\w+)")

// Captures graphs with several entry blocks
var multipleEntries = regexp.MustCompile("does not have exactly one entry")

// Captures analyses that were run on exceptional edges they do not support
var unsupportedEdge = regexp.MustCompile("unsupported dataflow operation: exceptional edge")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	if flagAfterFiles.MatchString(errMsg) {
		return "all command line flags should be before the path to the method files"
	}
	if regexInvalidMethod.MatchString(errMsg) {
		return "check the method description: blocks, edges and ranges refer to blocks by name"
	}
	if multipleEntries.MatchString(errMsg) {
		return "code can only be generated for a graph with exactly one entry block"
	}
	if unsupportedEdge.MatchString(errMsg) {
		return "set skip-exception-edges in the options of the config file"
	}
	return ""
}
