package forum

// categoryPath returns [id, parent, ..., root]. The starting category must
// exist. The walk stops after maxDepth+1 hops; a longer chain or a dangling
// parent link means the stored tree is corrupt.
func categoryPath(view Reader, id CategoryID, maxDepth uint32) ([]Category, error) {
	start, ok, err := view.Category(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, CategoryNotFound(id)
	}

	path := []Category{start}
	current := start
	for current.PositionInParent != nil {
		if uint64(len(path)) > uint64(maxDepth) {
			return nil, corrupt("category %d: path exceeds max depth %d", id, maxDepth)
		}
		parentID := current.PositionInParent.ParentID
		parent, ok, err := view.Category(parentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, corrupt("category %d: dangling parent link to %d", current.ID, parentID)
		}
		path = append(path, parent)
		current = parent
	}
	return path, nil
}

// pathIsMutable reports whether no category on the path is archived or deleted.
func pathIsMutable(path []Category) bool {
	for _, c := range path {
		if c.Archived || c.Deleted {
			return false
		}
	}
	return true
}

// ensureCategoryMutable requires the self-inclusive path of id to be mutable.
func ensureCategoryMutable(view Reader, id CategoryID, maxDepth uint32) error {
	path, err := categoryPath(view, id, maxDepth)
	if err != nil {
		return err
	}
	if !pathIsMutable(path) {
		return ErrAncestorImmutable
	}
	return nil
}

// CategoryDepth returns the depth of an existing category, root being 0.
func CategoryDepth(view Reader, id CategoryID) (uint32, error) {
	settings, err := view.Settings()
	if err != nil {
		return 0, err
	}
	path, err := categoryPath(view, id, settings.MaxCategoryDepth)
	if err != nil {
		return 0, err
	}
	return uint32(len(path) - 1), nil
}
