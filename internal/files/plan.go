package files

import "path/filepath"

// Job pairs one input file with the output file a stage writes for it.
type Job struct {
	Input  string
	Output string
	Stem   string
}

// Plan maps every input to outDir/<stem><ext>. It performs no I/O.
func Plan(inputs []FileInfo, outDir, ext string) []Job {
	jobs := make([]Job, 0, len(inputs))
	for _, in := range inputs {
		stem := in.Stem()
		jobs = append(jobs, Job{
			Input:  in.Path,
			Output: filepath.Join(outDir, stem+ext),
			Stem:   stem,
		})
	}
	return jobs
}

// PlanPaths is Plan for bare paths.
func PlanPaths(paths []string, outDir, ext string) []Job {
	inputs := make([]FileInfo, 0, len(paths))
	for _, p := range paths {
		inputs = append(inputs, FileInfo{Path: p, Name: filepath.Base(p)})
	}
	return Plan(inputs, outDir, ext)
}
