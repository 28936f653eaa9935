package scheduler

// ClassifyShared returns the course codes that appear exactly once in every
// one of sections. A code missing from any section, or defined twice in one,
// is exclusive. Codes are returned in first-seen order.
func ClassifyShared(courses []Course, sections []string) []string {
	if len(sections) == 0 {
		return nil
	}
	inScope := make(map[string]bool, len(sections))
	for _, section := range sections {
		inScope[section] = true
	}

	counts := make(map[string]map[string]int)
	var order []string
	for _, course := range courses {
		if !inScope[course.SectionID] {
			continue
		}
		if counts[course.Code] == nil {
			counts[course.Code] = make(map[string]int)
			order = append(order, course.Code)
		}
		counts[course.Code][course.SectionID]++
	}

	var shared []string
	for _, code := range order {
		perSection := counts[code]
		isShared := true
		for _, section := range sections {
			if perSection[section] != 1 {
				isShared = false
				break
			}
		}
		if isShared {
			shared = append(shared, code)
		}
	}
	return shared
}

// partition splits year-level courses into one definition per shared code
// and per-section exclusive lists. Courses outside yearLevel or sections
// are dropped.
func partition(yearLevel int, courses []Course, sections []string, sharedCodes []string) ([]Course, map[string][]Course) {
	isShared := make(map[string]bool, len(sharedCodes))
	for _, code := range sharedCodes {
		isShared[code] = true
	}
	exclusive := make(map[string][]Course, len(sections))
	for _, section := range sections {
		exclusive[section] = nil
	}

	var shared []Course
	taken := make(map[string]bool, len(sharedCodes))
	for _, course := range courses {
		if course.YearLevel != yearLevel {
			continue
		}
		if _, ok := exclusive[course.SectionID]; !ok {
			continue
		}
		if isShared[course.Code] {
			if !taken[course.Code] {
				taken[course.Code] = true
				shared = append(shared, course)
			}
			continue
		}
		exclusive[course.SectionID] = append(exclusive[course.SectionID], course)
	}
	return shared, exclusive
}

// reconcile runs the shared pass then one exclusive pass per section, all
// against the same ledger.
func (e *Engine) reconcile(ledger *Ledger, yearLevel int, courses []Course, sections []string) YearResult {
	var inYear []Course
	for _, course := range courses {
		if course.YearLevel == yearLevel {
			inYear = append(inYear, course)
		}
	}
	sharedCodes := ClassifyShared(inYear, sections)
	sharedCourses, exclusive := partition(yearLevel, inYear, sections, sharedCodes)

	result := YearResult{
		YearLevel:   yearLevel,
		SharedCodes: sharedCodes,
		Sections:    make([]SectionResult, 0, len(sections)),
	}

	sharedPass := NewAllocator(e.grid, ledger, SharedPolicy, e.logger)
	result.Shared = sharedPass.Place(ExpandShared(sharedCourses, sections))
	result.Assignments = append(result.Assignments, result.Shared.Assignments...)

	for _, section := range sections {
		pass := NewAllocator(e.grid, ledger, ExclusivePolicy, e.logger)
		sectionResult := pass.Place(Expand(exclusive[section]))
		result.Sections = append(result.Sections, SectionResult{SectionID: section, Result: sectionResult})
		result.Assignments = append(result.Assignments, sectionResult.Assignments...)
	}
	return result
}
