package download

import "fmt"

// ArtifactError reports the artifact a download run failed on.
type ArtifactError struct {
	Name string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Name, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}
