package shared

import "fmt"

// JobLockKey builds redis keys for jobs that must run on one worker at a time.
func JobLockKey(job string) string {
	return fmt.Sprintf("carrier:job:%s:lock", job)
}
