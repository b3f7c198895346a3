package worker

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	gormdb "github.com/dtp-id/talenta/internal/db/gorm"
	"github.com/dtp-id/talenta/internal/storage"
	"github.com/dtp-id/talenta/pkg/models"
)

const maxUploadSize = 10 << 20

var (
	certificationTypes = map[string]bool{"image/jpeg": true, "image/png": true, "application/pdf": true}
	avatarTypes        = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}
)

func (s *Service) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.ProfileByUserID(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, profileErr(err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Service) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var u models.ProfileUpdate
	if err := decodeJSON(r, &u); err != nil {
		writeError(w, r, err)
		return
	}
	if err := u.Validate(s.catalog.KnownSkill); err != nil {
		writeError(w, r, err)
		return
	}

	userID := currentUser(r).ID
	if !u.Empty() {
		if err := s.profiles.UpdateProfile(r.Context(), userID, &u); err != nil {
			writeError(w, r, profileErr(err))
			return
		}
	}
	s.writeProfile(w, r, userID)
}

func (s *Service) handleConstants(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"genders":          models.Genders,
		"education_levels": models.EducationLevels,
		"job_types":        models.JobTypes,
		"functional_areas": s.catalog.AreaNames(),
		"skills":           s.catalog.Skills(),
	})
}

func (s *Service) handleCompleteness(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.ProfileByUserID(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, profileErr(err))
		return
	}
	writeJSON(w, http.StatusOK, models.ComputeCompleteness(p))
}

func (s *Service) handleAddEducation(w http.ResponseWriter, r *http.Request) {
	var e models.Education
	if err := decodeJSON(r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	if err := e.Normalize(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.profiles.AddEducation(r.Context(), currentUser(r).ID, &e); err != nil {
		writeError(w, r, limitErr(err, "Maksimal hanya boleh 3 data pendidikan."))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Service) handleDeleteEducation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.profiles.DeleteEducation(r.Context(), currentUser(r).ID, id); err != nil {
		writeError(w, r, notFoundErr(err, "Education not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Education deleted"})
}

func (s *Service) handleAddExperience(w http.ResponseWriter, r *http.Request) {
	var x models.Experience
	if err := decodeJSON(r, &x); err != nil {
		writeError(w, r, err)
		return
	}
	if err := x.Validate(s.catalog.KnownArea); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.profiles.AddExperience(r.Context(), currentUser(r).ID, &x); err != nil {
		writeError(w, r, limitErr(err, "Maksimal hanya boleh 3 pengalaman kerja."))
		return
	}
	writeJSON(w, http.StatusOK, x)
}

func (s *Service) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.profiles.DeleteExperience(r.Context(), currentUser(r).ID, id); err != nil {
		writeError(w, r, notFoundErr(err, "Experience not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Experience deleted successfully"})
}

func (s *Service) handleAddCertification(w http.ResponseWriter, r *http.Request) {
	if s.objects == nil {
		writeError(w, r, errStorageUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, r, models.ValidationErrors{models.NewValidationError("file", "Tolong input file (wajib diisi)")})
		return
	}

	cert, err := certificationFromForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := cert.Validate(s.now()); err != nil {
		writeError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, models.ValidationErrors{models.NewValidationError("file", "Tolong input file (wajib diisi)")})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !certificationTypes[contentType] {
		writeError(w, r, errStatus(http.StatusBadRequest, "Format file harus JPG, PNG, atau PDF"))
		return
	}

	userID := currentUser(r).ID
	key := storage.ObjectKey(storage.PrefixCertifications, userID, header.Filename)
	url, err := s.objects.Put(r.Context(), key, file, header.Size, contentType)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Certification upload failed")
		writeError(w, r, errStatus(http.StatusInternalServerError, "Gagal upload MinIO: "+err.Error()))
		return
	}
	cert.ProofURL = url

	if err := s.profiles.AddCertification(r.Context(), userID, cert); err != nil {
		s.removeObject(r.Context(), url)
		writeError(w, r, limitErr(err, "Maksimal hanya boleh 3 sertifikasi."))
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

func certificationFromForm(r *http.Request) (*models.Certification, error) {
	var verrs models.ValidationErrors
	required := func(field, label string) string {
		v := strings.TrimSpace(r.FormValue(field))
		if v == "" {
			verrs = append(verrs, models.NewValidationError(field, "Tolong input "+label+" (wajib diisi)"))
		}
		return v
	}

	cert := &models.Certification{
		Name:           required("name", "Nama Sertifikasi"),
		Organizer:      required("organizer", "Penyelenggara"),
		Description:    required("description", "Deskripsi"),
		BidangKeahlian: required("bidang_keahlian", "Bidang Keahlian"),
	}
	if year := required("year", "Tahun"); year != "" {
		n, err := strconv.Atoi(year)
		if err != nil {
			verrs = append(verrs, models.NewValidationError("year", "Format Tahun tidak valid"))
		}
		cert.Year = n
	}
	if err := verrs.OrNil(); err != nil {
		return nil, err
	}
	return cert, nil
}

func (s *Service) handleDeleteCertification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	proofURL, err := s.profiles.DeleteCertification(r.Context(), currentUser(r).ID, id)
	if err != nil {
		writeError(w, r, notFoundErr(err, "Certification not found"))
		return
	}
	s.removeObject(r.Context(), proofURL)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Certification deleted successfully"})
}

func (s *Service) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	if s.objects == nil {
		writeError(w, r, errStorageUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, models.ValidationErrors{models.NewValidationError("file", "Tolong input file (wajib diisi)")})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !avatarTypes[contentType] {
		writeError(w, r, errStatus(http.StatusBadRequest, "Format file harus JPG, PNG, atau WebP"))
		return
	}

	userID := currentUser(r).ID
	key := storage.ObjectKey(storage.PrefixAvatars, userID, header.Filename)
	url, err := s.objects.Put(r.Context(), key, file, header.Size, contentType)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Avatar upload failed")
		writeError(w, r, errStatus(http.StatusInternalServerError, "Gagal upload MinIO: "+err.Error()))
		return
	}

	previous, err := s.profiles.SetAvatar(r.Context(), userID, url)
	if err != nil {
		s.removeObject(r.Context(), url)
		writeError(w, r, profileErr(err))
		return
	}
	s.removeObject(r.Context(), previous)
	s.writeProfile(w, r, userID)
}

func (s *Service) handleDeleteAvatar(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r).ID
	previous, err := s.profiles.SetAvatar(r.Context(), userID, "")
	if err != nil {
		writeError(w, r, profileErr(err))
		return
	}
	s.removeObject(r.Context(), previous)
	s.writeProfile(w, r, userID)
}

func (s *Service) writeProfile(w http.ResponseWriter, r *http.Request, userID int64) {
	p, err := s.profiles.ProfileByUserID(r.Context(), userID)
	if err != nil {
		writeError(w, r, profileErr(err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// removeObject deletes the object behind url. Failures are logged only.
func (s *Service) removeObject(ctx context.Context, url string) {
	if url == "" || s.objects == nil {
		return
	}
	key, ok := s.objects.KeyFromURL(url)
	if !ok {
		log.Warn().Str("url", url).Msg("Stored file URL does not point into the bucket")
		return
	}
	if err := s.objects.Remove(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to remove stored file")
	}
}

var errStorageUnavailable = errStatus(http.StatusServiceUnavailable, "Penyimpanan file tidak tersedia")

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, models.ValidationErrors{models.NewValidationError("id", "Format id tidak valid")})
		return 0, false
	}
	return id, true
}

func profileErr(err error) error {
	return notFoundErr(err, "Profile not found")
}

func notFoundErr(err error, detail string) error {
	if errors.Is(err, models.ErrNotFound) {
		return errStatus(http.StatusNotFound, detail)
	}
	return err
}

func limitErr(err error, detail string) error {
	if errors.Is(err, gormdb.ErrLimitReached) {
		return errStatus(http.StatusBadRequest, detail)
	}
	return profileErr(err)
}
