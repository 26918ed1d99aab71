// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// bio-placement places viral genome sequences on a reference phylogenetic
// tree.
//
// Example:
//
//	bio-placement run -reference=ref.fasta -tree=tree.json \
//	    -output-tree=out.json.gz -output-tsv=out.tsv queries.fasta.gz
package main

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"
)

func newCmdNewick() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "newick",
		Short:    "Convert an Auspice JSON tree to Newick",
		ArgsName: "treepath destpath",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("newick takes treepath destpath, but found %v", argv)
		}
		return convertNewick(argv[0], argv[1])
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-placement",
			Short:    "Place viral genomes on a reference phylogenetic tree",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdRun(),
				newCmdNewick(),
			},
		})
}
