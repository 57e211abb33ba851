package graph

// Issue is one finding reported by the code quality analyzer.
type Issue struct {
	FilePath     string `json:"filePath"`
	FunctionName string `json:"functionName,omitempty"`
	Line         int    `json:"line,omitempty"`
	IssueType    string `json:"issueType,omitempty"`
	Detail       string `json:"detail,omitempty"`
}

// Bucket is a per-category issue list with its total.
type Bucket struct {
	Count  int     `json:"count"`
	Issues []Issue `json:"issues"`
}

// Add appends an issue and bumps the count.
func (b *Bucket) Add(issue Issue) {
	b.Issues = append(b.Issues, issue)
	b.Count++
}

// DeadCodeBucket carries sub-counts per dead-code kind.
type DeadCodeBucket struct {
	Count             int     `json:"count"`
	UnusedControllers int     `json:"unusedControllers"`
	UnusedMethods     int     `json:"unusedMethods"`
	CommentedBlocks   int     `json:"commentedBlocks"`
	BackupFiles       int     `json:"backupFiles"`
	Issues            []Issue `json:"issues"`
}

// TechDebtBucket carries sub-counts per debt marker class.
type TechDebtBucket struct {
	Count        int     `json:"count"`
	Todos        int     `json:"todos"`
	Fixmes       int     `json:"fixmes"`
	Hacks        int     `json:"hacks"`
	TempRemovals int     `json:"tempRemovals"`
	Issues       []Issue `json:"issues"`
}

// Statistics is the fixed-shape record emitted with every code map.
type Statistics struct {
	DBQueriesInLoops Bucket         `json:"dbQueriesInLoops"`
	NPlusOneQueries  Bucket         `json:"nPlusOneQueries"`
	DeadCode         DeadCodeBucket `json:"deadCode"`
	TechnicalDebt    TechDebtBucket `json:"technicalDebt"`
	CodeSmells       Bucket         `json:"codeSmells"`
	RepeatedCode     Bucket         `json:"repeatedCode"`
	Anomalies        Bucket         `json:"anomalies"`
	BlockingAsync    Bucket         `json:"blockingAsync"`
}
