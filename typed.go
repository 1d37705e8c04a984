package pagedb

// Store is a typed view over a DB.
type Store[K any, V any] struct {
	db       *DB
	keyCodec Codec[K]
	valCodec Codec[V]
}

func NewStore[K any, V any](db *DB, keyCodec Codec[K], valCodec Codec[V]) *Store[K, V] {
	return &Store[K, V]{
		db:       db,
		keyCodec: keyCodec,
		valCodec: valCodec,
	}
}

func (s *Store[K, V]) Get(key K) (value V, found bool, err error) {
	keyBytes, err := s.keyCodec.Marshal(&key)
	if err != nil {
		return
	}
	valBytes, found, err := s.db.Get(keyBytes)
	if err != nil || !found {
		return
	}
	err = s.valCodec.Unmarshal(valBytes, &value)
	return
}

func (s *Store[K, V]) Put(key K, value V) error {
	keyBytes, err := s.keyCodec.Marshal(&key)
	if err != nil {
		return err
	}
	valBytes, err := s.valCodec.Marshal(&value)
	if err != nil {
		return err
	}
	return s.db.Put(keyBytes, valBytes)
}

func (s *Store[K, V]) Delete(key K) (bool, error) {
	keyBytes, err := s.keyCodec.Marshal(&key)
	if err != nil {
		return false, err
	}
	return s.db.Delete(keyBytes)
}

// Range walks keys in byte order; fn's error stops the walk and is returned.
func (s *Store[K, V]) Range(fn func(key K, value V) (bool, error)) error {
	var fnErr error
	err := s.db.Range(func(k, v []byte) bool {
		var (
			key   K
			value V
		)
		if fnErr = s.keyCodec.Unmarshal(k, &key); fnErr != nil {
			return false
		}
		if fnErr = s.valCodec.Unmarshal(v, &value); fnErr != nil {
			return false
		}
		var next bool
		next, fnErr = fn(key, value)
		return fnErr == nil && next
	})
	if err != nil {
		return err
	}
	return fnErr
}
